package driven

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// DocumentSource loads raw documents from the corpus location.
type DocumentSource interface {
	// Name returns a description of the source (e.g. the directory).
	Name() string

	// Load reads every supported document. Files that cannot be read are
	// returned as failures alongside the documents that could.
	Load(ctx context.Context) ([]domain.RawDocument, []SourceFailure, error)
}

// SourceFailure is a file the source could not read.
type SourceFailure struct {
	Path string
	Err  error
}

// DocumentWatcher reports changes to a document source.
type DocumentWatcher interface {
	// Watch blocks until ctx is cancelled, calling onChange after each
	// settled burst of changes.
	Watch(ctx context.Context, onChange func()) error
}
