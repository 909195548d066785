package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// Ensure DocumentRegistry implements the interface.
var _ driven.DocumentRegistry = (*DocumentRegistry)(nil)

// DocumentRegistry is an in-memory implementation of driven.DocumentRegistry.
type DocumentRegistry struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentRecord
}

// NewDocumentRegistry creates a new in-memory document registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]domain.DocumentRecord),
	}
}

// Upsert records or replaces a document entry.
func (r *DocumentRegistry) Upsert(_ context.Context, rec domain.DocumentRecord) error {
	if rec.DocID == "" {
		return domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[rec.DocID] = rec
	return nil
}

// Get retrieves a document entry by ID.
func (r *DocumentRegistry) Get(_ context.Context, docID string) (*domain.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.documents[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns all entries ordered by title, then DocID.
func (r *DocumentRegistry) List(_ context.Context) ([]domain.DocumentRecord, error) {
	r.mu.RLock()
	out := make([]domain.DocumentRecord, 0, len(r.documents))
	for _, rec := range r.documents {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].DocID < out[j].DocID
	})
	return out, nil
}

// Count returns the number of entries.
func (r *DocumentRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents), nil
}

// Reset removes all entries.
func (r *DocumentRegistry) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = make(map[string]domain.DocumentRecord)
	return nil
}

// Close is a no-op for the in-memory registry.
func (r *DocumentRegistry) Close() error {
	return nil
}
