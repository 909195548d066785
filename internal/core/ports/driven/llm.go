package driven

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// LLMService turns a question and its retrieved context into an answer.
type LLMService interface {
	// Generate produces answer text for query grounded in chunks.
	// Chunks are in ranked order.
	Generate(ctx context.Context, query string, chunks []domain.Chunk) (string, error)

	// Provider returns the provider identifier (e.g. "openai").
	Provider() domain.LLMProvider

	// ModelName returns the name of the language model.
	ModelName() string

	// Ping validates the LLM service is reachable and functional.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
