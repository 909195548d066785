// Package failover wraps a persistent VectorStore with an in-process fallback.
//
// The switch is one-way: once the primary is found unavailable, at startup or
// on any later call, every subsequent operation goes to the fallback for the
// rest of the process lifetime.
package failover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorStore         = (*Store)(nil)
	_ driven.DegradationReporter = (*Store)(nil)
)

// Store delegates to primary until it fails, then to fallback.
type Store struct {
	primary  driven.VectorStore
	fallback driven.VectorStore

	switched atomic.Bool
	once     sync.Once

	mu     sync.RWMutex
	reason string
}

// New creates a failover store. No backend is contacted.
func New(primary, fallback driven.VectorStore) *Store {
	return &Store{primary: primary, fallback: fallback}
}

// preparer is implemented by stores that must create their collection before use.
type preparer interface {
	EnsureCollection(ctx context.Context) error
}

// Start checks the primary within timeout and switches to the fallback if it
// does not answer. Stores implementing EnsureCollection are prepared instead
// of pinged. It never returns an error.
func (s *Store) Start(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		timeout = domain.DefaultVectorStoreTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	check := s.primary.Ping
	if p, ok := s.primary.(preparer); ok {
		check = p.EnsureCollection
	}
	if err := check(pingCtx); err != nil {
		s.switchOver(fmt.Sprintf("%s unreachable at startup: %v", s.primary.Name(), err))
	}
}

func (s *Store) switchOver(reason string) {
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		s.switched.Store(true)
		logger.Warn("vector store: %s; using %s for the rest of this process", reason, s.fallback.Name())
	})
}

func (s *Store) active() driven.VectorStore {
	if s.switched.Load() {
		return s.fallback
	}
	return s.primary
}

// call runs op on the active store. An unavailability error from the primary
// switches over and retries op on the fallback.
func call[T any](s *Store, op func(driven.VectorStore) (T, error)) (T, error) {
	st := s.active()
	res, err := op(st)
	if err == nil || st == s.fallback || !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		return res, err
	}
	s.switchOver(fmt.Sprintf("%s failed: %v", s.primary.Name(), err))
	return op(s.fallback)
}

// Name returns the active backend name.
func (s *Store) Name() string {
	return s.active().Name()
}

// PrimaryName returns the configured backend name.
func (s *Store) PrimaryName() string {
	return s.primary.Name()
}

// Degraded reports whether the fallback is in effect and why.
func (s *Store) Degraded() (bool, string) {
	if !s.switched.Load() {
		return false, ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return true, s.reason
}

// Upsert inserts or overwrites points by chunk ID.
func (s *Store) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	_, err := call(s, func(st driven.VectorStore) (struct{}, error) {
		return struct{}{}, st.Upsert(ctx, points)
	})
	return err
}

// ReplaceDocument makes points the complete chunk set of docID.
func (s *Store) ReplaceDocument(ctx context.Context, docID string, points []driven.VectorPoint) error {
	_, err := call(s, func(st driven.VectorStore) (struct{}, error) {
		return struct{}{}, st.ReplaceDocument(ctx, docID, points)
	})
	return err
}

// Search returns up to k chunks ranked by descending similarity.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	return call(s, func(st driven.VectorStore) ([]domain.ScoredChunk, error) {
		return st.Search(ctx, query, k)
	})
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	return call(s, func(st driven.VectorStore) (int, error) {
		return st.Count(ctx)
	})
}

// Reset removes all stored chunks.
func (s *Store) Reset(ctx context.Context) error {
	_, err := call(s, func(st driven.VectorStore) (struct{}, error) {
		return struct{}{}, st.Reset(ctx)
	})
	return err
}

// Ping checks the active backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.active().Ping(ctx)
}

// Close closes both backends.
func (s *Store) Close() error {
	return errors.Join(s.primary.Close(), s.fallback.Close())
}
