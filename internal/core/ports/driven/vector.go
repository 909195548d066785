package driven

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// VectorPoint is a chunk with its embedding, ready for storage.
type VectorPoint struct {
	Chunk  domain.Chunk
	Vector []float32
}

// VectorStore persists chunk vectors and payloads and searches them.
// Scores are cosine similarities; vectors are stored L2-normalised.
type VectorStore interface {
	// Name returns the backend identifier reported on health checks.
	Name() string

	// Upsert inserts or overwrites points by chunk ID.
	Upsert(ctx context.Context, points []VectorPoint) error

	// ReplaceDocument makes points the complete chunk set of docID.
	// Readers observe either the previous set or the new one.
	ReplaceDocument(ctx context.Context, docID string, points []VectorPoint) error

	// Search returns up to k chunks ranked by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Reset removes all stored chunks.
	Reset(ctx context.Context) error

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// DegradationReporter is implemented by stores and LLM services that can
// switch to a fallback.
type DegradationReporter interface {
	// Degraded returns true and a reason once a fallback is in effect.
	Degraded() (bool, string)
}
