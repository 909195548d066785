package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

type askFixture struct {
	store    *fakeStore
	llm      *fakeLLM
	fallback *fakeLLM
	recorder *MetricsRecorder
	svc      *AskService
}

func newAskFixture(hits ...domain.ScoredChunk) *askFixture {
	store := &fakeStore{hits: hits, count: len(hits)}
	f := &askFixture{
		store:    store,
		llm:      &fakeLLM{answer: "generated answer"},
		fallback: &fakeLLM{answer: "stub answer", provider: domain.LLMProviderStub},
		recorder: NewMetricsRecorder(nil),
	}
	retriever := NewRetriever(&fakeEmbedder{def: []float32{1, 0}}, store, retrievalSettings(false))
	f.svc = NewAskService(retriever, store, f.llm, f.fallback, f.recorder, domain.DefaultK)
	return f
}

func sixHits() []domain.ScoredChunk {
	var hits []domain.ScoredChunk
	for i := 0; i < 6; i++ {
		hits = append(hits, hit(fmt.Sprintf("c%d", i), "d1", "Policy.md", "S", fmt.Sprintf("text %d", i), i, 0.9-float64(i)/100, nil))
	}
	return hits
}

func TestAskService_Validation(t *testing.T) {
	f := newAskFixture(sixHits()...)

	tests := []struct {
		name string
		req  domain.AskRequest
	}{
		{name: "empty query", req: domain.AskRequest{Query: ""}},
		{name: "whitespace query", req: domain.AskRequest{Query: "   \n\t"}},
		{name: "negative k", req: domain.AskRequest{Query: "q", K: -1}},
		{name: "k above corpus", req: domain.AskRequest{Query: "q", K: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ask(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}
	assert.Empty(t, f.llm.queries)
}

func TestAskService_DefaultK(t *testing.T) {
	f := newAskFixture(sixHits()...)

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "  what is the policy?  "})
	require.NoError(t, err)

	assert.Len(t, resp.Chunks, domain.DefaultK)
	assert.Equal(t, "generated answer", resp.Answer)
	assert.Equal(t, []string{"what is the policy?"}, f.llm.queries)
	assert.False(t, resp.Metrics.Degraded)
	assert.Empty(t, resp.Metrics.FallbackReason)
	assert.Equal(t, "openai", resp.Metrics.LLMProvider)
}

func TestAskService_DefaultKBoundedByCorpus(t *testing.T) {
	f := newAskFixture(sixHits()[:2]...)

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)
	assert.Len(t, resp.Chunks, 2)
}

func TestAskService_ExplicitK(t *testing.T) {
	f := newAskFixture(sixHits()...)

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q", K: 6})
	require.NoError(t, err)
	assert.Len(t, resp.Chunks, 6)
	require.Len(t, f.llm.chunks, 1)
	assert.Len(t, f.llm.chunks[0], 6)
}

func TestAskService_EmptyCorpus(t *testing.T) {
	f := newAskFixture()

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, EmptyCorpusAnswer, resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.Empty(t, resp.Chunks)
	assert.Empty(t, f.llm.queries)
	assert.Zero(t, f.recorder.Snapshot().QueriesServed)
	assert.False(t, resp.Metrics.Degraded)
}

func TestAskService_EmptyCorpusKeepsDegradation(t *testing.T) {
	f := newAskFixture()
	f.svc.SetStartupDegradations([]string{"qdrant unreachable at startup"})

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "refunds"})
	require.NoError(t, err)

	assert.Equal(t, EmptyCorpusAnswer, resp.Answer)
	assert.True(t, resp.Metrics.Degraded)
	assert.Equal(t, "qdrant unreachable at startup", resp.Metrics.FallbackReason)
}

func TestAskService_EmptyCorpusAfterStoreFailover(t *testing.T) {
	store := degradedStore{&fakeStore{}}
	retriever := NewRetriever(&fakeEmbedder{def: []float32{1, 0}}, store, retrievalSettings(false))
	svc := NewAskService(retriever, store, &fakeLLM{answer: "a"}, &fakeLLM{}, NewMetricsRecorder(nil), 4)

	resp, err := svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, EmptyCorpusAnswer, resp.Answer)
	assert.True(t, resp.Metrics.Degraded)
	assert.Contains(t, resp.Metrics.FallbackReason, "qdrant unreachable")
}

func TestAskService_LLMFailureFallsBack(t *testing.T) {
	for _, cause := range []error{
		domain.ErrLLMTimeout,
		domain.ErrLLMAuth,
		domain.ErrRateLimited,
		domain.ErrLLMMalformedResponse,
		domain.ErrLLMUnavailable,
	} {
		t.Run(cause.Error(), func(t *testing.T) {
			f := newAskFixture(sixHits()...)
			f.llm.err = fmt.Errorf("openai: %w", cause)

			resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
			require.NoError(t, err)

			assert.Equal(t, "stub answer", resp.Answer)
			assert.True(t, resp.Metrics.Degraded)
			assert.Equal(t, "stub", resp.Metrics.LLMProvider)
			assert.Contains(t, resp.Metrics.FallbackReason, cause.Error())
			assert.Len(t, resp.Citations, 1)
			assert.Equal(t, int64(1), f.recorder.Snapshot().DegradedResponses)
		})
	}
}

func TestAskService_StartupDegradationMarksAnswers(t *testing.T) {
	f := newAskFixture(sixHits()...)
	f.svc.SetStartupDegradations([]string{"llm: openai API key missing; using stub"})

	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)

	assert.True(t, resp.Metrics.Degraded)
	assert.Equal(t, "llm: openai API key missing; using stub", resp.Metrics.FallbackReason)
}

type degradedStore struct {
	*fakeStore
}

func (degradedStore) Degraded() (bool, string) { return true, "qdrant unreachable at startup" }

func TestAskService_VectorFailoverMarksAnswers(t *testing.T) {
	hits := sixHits()
	store := degradedStore{&fakeStore{hits: hits, count: len(hits)}}
	retriever := NewRetriever(&fakeEmbedder{def: []float32{1, 0}}, store, retrievalSettings(false))
	svc := NewAskService(retriever, store, &fakeLLM{answer: "a"}, &fakeLLM{}, NewMetricsRecorder(nil), 4)

	resp, err := svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)

	assert.True(t, resp.Metrics.Degraded)
	assert.Contains(t, resp.Metrics.FallbackReason, "qdrant unreachable")
}

func TestAskService_RetrievalErrorPropagates(t *testing.T) {
	f := newAskFixture(sixHits()...)
	f.store.searchErr = domain.ErrVectorStoreUnavailable

	_, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}

func TestAskService_MetricsAverages(t *testing.T) {
	f := newAskFixture(sixHits()...)

	_, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)
	resp, err := f.svc.Ask(context.Background(), domain.AskRequest{Query: "q"})
	require.NoError(t, err)

	snap := f.recorder.Snapshot()
	assert.Equal(t, int64(2), snap.QueriesServed)
	assert.Equal(t, snap.AvgRetrievalLatencyMs, resp.Metrics.AvgRetrievalLatencyMs)
	assert.GreaterOrEqual(t, resp.Metrics.RetrievalMs, 0.0)
}
