package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitationOf(t *testing.T) {
	c := Chunk{
		ID:         "c1",
		DocID:      "d1",
		Title:      "Warranty_Policy.md",
		Section:    "Coverage",
		Text:       "Appliances carry a 12 month warranty.",
		OrderIndex: 2,
	}

	assert.Equal(t, Citation{Title: "Warranty_Policy.md", Section: "Coverage"}, CitationOf(c))
}

func TestCitationOf_NoSection(t *testing.T) {
	c := Chunk{Title: "Notes.txt"}

	cit := CitationOf(c)

	assert.Equal(t, "Notes.txt", cit.Title)
	assert.Empty(t, cit.Section)
}

func TestScoredChunk_RanksBefore(t *testing.T) {
	hit := func(score float64, order int, doc, id string) ScoredChunk {
		return ScoredChunk{Chunk: Chunk{ID: id, DocID: doc, OrderIndex: order}, Score: score}
	}

	assert.True(t, hit(0.9, 5, "b", "x").RanksBefore(hit(0.8, 0, "a", "a")))
	assert.True(t, hit(0.5, 0, "b", "x").RanksBefore(hit(0.5, 1, "a", "a")))
	assert.True(t, hit(0.5, 1, "a", "z").RanksBefore(hit(0.5, 1, "b", "a")))
	assert.True(t, hit(0.5, 1, "a", "a").RanksBefore(hit(0.5, 1, "a", "b")))
	assert.False(t, hit(0.5, 1, "a", "a").RanksBefore(hit(0.5, 1, "a", "a")))
}
