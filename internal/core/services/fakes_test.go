package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// fakeEmbedder returns fixed vectors per text, or def for unknown text.
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	def      []float32
	err      error
	batchErr error
	calls    int
	batched  []string
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return f.def
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batched = append(f.batched, texts...)
	if f.err != nil {
		return nil, f.err
	}
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 2 }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeStore serves canned hits and records writes.
type fakeStore struct {
	mu         sync.Mutex
	hits       []domain.ScoredChunk
	searchErr  error
	count      int
	searchK    []int
	replaced   map[string][]driven.VectorPoint
	replaceErr error

	// failAfter makes ReplaceDocument fail with replaceErr once that many
	// documents are stored. Zero fails every call when replaceErr is set.
	failAfter int
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Upsert(context.Context, []driven.VectorPoint) error { return nil }

func (f *fakeStore) ReplaceDocument(_ context.Context, docID string, points []driven.VectorPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil && len(f.replaced) >= f.failAfter {
		return f.replaceErr
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]driven.VectorPoint)
	}
	f.replaced[docID] = points
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchK = append(f.searchK, k)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]domain.ScoredChunk, len(f.hits))
	copy(out, f.hits)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, nil
}

func (f *fakeStore) Reset(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error  { return nil }
func (f *fakeStore) Close() error                { return nil }

// fakeLLM returns a fixed answer or error.
type fakeLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	provider domain.LLMProvider
	queries  []string
	chunks   [][]domain.Chunk
}

func (f *fakeLLM) Generate(_ context.Context, query string, chunks []domain.Chunk) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.chunks = append(f.chunks, chunks)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeLLM) Provider() domain.LLMProvider {
	if f.provider == "" {
		return domain.LLMProviderOpenAI
	}
	return f.provider
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

func hit(id, doc, title, section, text string, order int, score float64, vec []float32) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         id,
			DocID:      doc,
			Title:      title,
			Section:    section,
			Text:       text,
			OrderIndex: order,
		},
		Score:  score,
		Vector: vec,
	}
}
