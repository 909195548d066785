package driving

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// IngestService loads the configured corpus into the vector store.
type IngestService interface {
	// Ingest indexes every document from the source, replacing the
	// chunk set of documents that were indexed before.
	// Concurrent calls are serialised.
	Ingest(ctx context.Context) (*domain.IngestResult, error)
}
