package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, store or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Query Errors.

	// ErrInvalidQuery indicates an ask request failed validation.
	// Retrieval and generation are never invoked for such a request.
	ErrInvalidQuery = errors.New("invalid query")

	// Ingestion Errors.

	// ErrIngestion indicates a single source file could not be read or decoded.
	// The file is skipped and reported as a warning; other files still index.
	ErrIngestion = errors.New("ingestion failed")

	// Backend Errors.

	// ErrVectorStoreUnavailable indicates the persistent vector store cannot be reached.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service cannot produce vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM provider cannot be reached or refused the call.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrLLMTimeout indicates an LLM call exceeded its deadline.
	ErrLLMTimeout = errors.New("LLM call timed out")

	// ErrLLMAuth indicates the LLM provider rejected the configured credential.
	ErrLLMAuth = errors.New("LLM authentication failed")

	// ErrLLMMalformedResponse indicates the provider answered with an unusable payload.
	ErrLLMMalformedResponse = errors.New("LLM response malformed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IsLLMProviderError reports whether err belongs to the LLM provider family.
// Such errors are absorbed into a degraded stub answer.
func IsLLMProviderError(err error) bool {
	return errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrLLMTimeout) ||
		errors.Is(err, ErrLLMAuth) ||
		errors.Is(err, ErrLLMMalformedResponse) ||
		errors.Is(err, ErrRateLimited)
}
