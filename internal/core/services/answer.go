package services

import (
	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// AnswerComposer projects ranked chunks into the client-facing response.
// It never adds a citation that is not backed by a returned chunk.
type AnswerComposer struct{}

// Citations returns one citation per distinct (title, section) in first-appearance order.
func (AnswerComposer) Citations(hits []domain.ScoredChunk) []domain.Citation {
	seen := make(map[domain.Citation]struct{}, len(hits))
	out := make([]domain.Citation, 0, len(hits))
	for _, h := range hits {
		c := domain.CitationOf(h.Chunk)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Chunks returns the client view of each hit, in rank order.
func (AnswerComposer) Chunks(hits []domain.ScoredChunk) []domain.ChunkView {
	out := make([]domain.ChunkView, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.ChunkView{
			Title:   h.Chunk.Title,
			Section: h.Chunk.Section,
			Text:    h.Chunk.Text,
			Score:   h.Score,
		})
	}
	return out
}

// Compose assembles the response.
func (c AnswerComposer) Compose(answer string, hits []domain.ScoredChunk, metrics domain.ResponseMetrics) *domain.AskResponse {
	return &domain.AskResponse{
		Answer:    answer,
		Citations: c.Citations(hits),
		Chunks:    c.Chunks(hits),
		Metrics:   metrics,
	}
}
