// Package memory provides an in-process VectorStore using linear scan.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/policyhelper/internal/adapters/driven/vector"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Name is the backend identifier.
const Name = "memory"

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// Store keeps chunk vectors in a map guarded by an RWMutex.
// Searches take the read lock; writes take the write lock.
type Store struct {
	mu     sync.RWMutex
	points map[string]entry
	byDoc  map[string]map[string]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		points: make(map[string]entry),
		byDoc:  make(map[string]map[string]struct{}),
	}
}

// Name returns "memory".
func (s *Store) Name() string {
	return Name
}

// Upsert inserts or overwrites points by chunk ID.
func (s *Store) Upsert(_ context.Context, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		s.put(p)
	}
	return nil
}

// ReplaceDocument swaps the document's chunk set under one write lock.
func (s *Store) ReplaceDocument(_ context.Context, docID string, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byDoc[docID] {
		delete(s.points, id)
	}
	delete(s.byDoc, docID)

	for _, p := range points {
		s.put(p)
	}
	return nil
}

// put stores p; callers hold the write lock.
func (s *Store) put(p driven.VectorPoint) {
	if old, ok := s.points[p.Chunk.ID]; ok && old.chunk.DocID != p.Chunk.DocID {
		delete(s.byDoc[old.chunk.DocID], p.Chunk.ID)
	}

	vec := make([]float32, len(p.Vector))
	copy(vec, p.Vector)
	s.points[p.Chunk.ID] = entry{chunk: p.Chunk, vector: vecmath.Normalize(vec)}

	ids, ok := s.byDoc[p.Chunk.DocID]
	if !ok {
		ids = make(map[string]struct{})
		s.byDoc[p.Chunk.DocID] = ids
	}
	ids[p.Chunk.ID] = struct{}{}
}

// Search returns up to k chunks ranked by cosine similarity.
// Returned vectors are copies.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	hits := make([]domain.ScoredChunk, 0, len(s.points))
	for _, e := range s.points {
		hits = append(hits, domain.ScoredChunk{
			Chunk:  e.chunk,
			Score:  vecmath.Dot(query, e.vector),
			Vector: e.vector,
		})
	}
	s.mu.RUnlock()

	vector.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		v := make([]float32, len(hits[i].Vector))
		copy(v, hits[i].Vector)
		hits[i].Vector = v
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Reset removes all stored chunks.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[string]entry)
	s.byDoc = make(map[string]map[string]struct{})
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
