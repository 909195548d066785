package driven

import "context"

// EmbeddingService generates vector embeddings for text.
// Every vector returned has length Dimensions() and unit L2 norm.
type EmbeddingService interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Ping validates the embedding service is reachable and functional.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
