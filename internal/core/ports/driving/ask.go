package driving

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// AskService answers questions over the indexed corpus.
type AskService interface {
	// Ask validates the request, retrieves context and generates an answer.
	// Only domain.ErrInvalidQuery (and infrastructure failures with no
	// fallback) are returned as errors; provider failures degrade the answer.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error)
}
