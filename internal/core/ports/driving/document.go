package driving

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// DocumentService exposes the indexed document registry.
type DocumentService interface {
	// List returns all indexed documents ordered by title.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Get retrieves a document entry by ID.
	Get(ctx context.Context, docID string) (*domain.DocumentRecord, error)
}
