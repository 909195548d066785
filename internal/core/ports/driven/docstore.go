package driven

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// DocumentRegistry keeps bookkeeping for indexed documents.
// It never gates indexing; the VectorStore owns chunk state.
type DocumentRegistry interface {
	// Upsert records or replaces a document entry by DocID.
	Upsert(ctx context.Context, rec domain.DocumentRecord) error

	// Get returns a document entry, or domain.ErrNotFound.
	Get(ctx context.Context, docID string) (*domain.DocumentRecord, error)

	// List returns all entries ordered by title.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Reset removes all entries.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
