package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Retriever embeds a question and ranks stored chunks against it.
type Retriever struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever.
func NewRetriever(embedder driven.EmbeddingService, store driven.VectorStore, settings domain.RetrievalSettings) *Retriever {
	if settings.Oversample < 1 {
		settings.Oversample = 1
	}
	return &Retriever{embedder: embedder, store: store, settings: settings}
}

// Retrieve returns at most k chunks for query, best first.
// With MMR enabled, candidates similar to chunks already chosen are demoted.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := r.store.Search(ctx, qv, k*r.settings.Oversample)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.store.Name(), err)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RanksBefore(candidates[j])
	})
	logger.Debug("retrieval: %d candidates for k=%d", len(candidates), k)

	if !r.settings.MMREnabled || len(candidates) <= 1 {
		return truncate(candidates, k), nil
	}

	if err := r.fillVectors(ctx, candidates); err != nil {
		logger.Warn("retrieval: cannot embed candidates for diversity ranking: %v", err)
		return truncate(candidates, k), nil
	}
	return mmr(candidates, k, r.settings.MMRLambda), nil
}

// fillVectors embeds candidate text for stores that do not return vectors.
func (r *Retriever) fillVectors(ctx context.Context, candidates []domain.ScoredChunk) error {
	var idx []int
	var texts []string
	for i, c := range candidates {
		if c.Vector == nil {
			idx = append(idx, i)
			texts = append(texts, c.Chunk.Text)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
	}
	for n, i := range idx {
		candidates[i].Vector = vecs[n]
	}
	return nil
}

// mmr selects k candidates maximising score - lambda*max_sim(candidate, chosen).
// candidates must already be in rank order; ties keep that order.
func mmr(candidates []domain.ScoredChunk, k int, lambda float64) []domain.ScoredChunk {
	if k > len(candidates) {
		k = len(candidates)
	}
	chosen := make([]domain.ScoredChunk, 0, k)
	used := make([]bool, len(candidates))
	maxSim := make([]float64, len(candidates))

	for len(chosen) < k {
		best := -1
		var bestVal float64
		for i, c := range candidates {
			if used[i] {
				continue
			}
			val := c.Score - lambda*maxSim[i]
			if best < 0 || val > bestVal {
				best, bestVal = i, val
			}
		}

		used[best] = true
		pick := candidates[best]
		chosen = append(chosen, pick)

		for i, c := range candidates {
			if used[i] {
				continue
			}
			if sim := cosine(c.Vector, pick.Vector); len(chosen) == 1 || sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}
	return chosen
}

func cosine(a, b []float32) float64 {
	na, nb := vecmath.Norm(a), vecmath.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return vecmath.Dot(a, b) / (na * nb)
}

func truncate(hits []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}
