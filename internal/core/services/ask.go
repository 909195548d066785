package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// EmptyCorpusAnswer is returned when nothing has been ingested yet.
const EmptyCorpusAnswer = "No documents have been ingested yet. Run ingestion first, then ask your question again."

// AskService answers questions with retrieved context.
type AskService struct {
	retriever *Retriever
	store     driven.VectorStore
	llm       driven.LLMService
	fallback  driven.LLMService
	recorder  *MetricsRecorder
	composer  AnswerComposer
	defaultK  int

	// startup holds fallbacks chosen at startup; they mark every answer degraded.
	startup []string
}

// NewAskService creates an ask service. fallback must not fail; it answers
// whenever llm does.
func NewAskService(
	retriever *Retriever,
	store driven.VectorStore,
	llm driven.LLMService,
	fallback driven.LLMService,
	recorder *MetricsRecorder,
	defaultK int,
) *AskService {
	if defaultK <= 0 {
		defaultK = domain.DefaultK
	}
	return &AskService{
		retriever: retriever,
		store:     store,
		llm:       llm,
		fallback:  fallback,
		recorder:  recorder,
		defaultK:  defaultK,
	}
}

// SetStartupDegradations records fallbacks chosen when the adapters were resolved.
func (s *AskService) SetStartupDegradations(reasons []string) {
	s.startup = append([]string(nil), reasons...)
}

// Ask validates the request, retrieves context and generates an answer.
func (s *AskService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if req.K < 0 {
		return nil, fmt.Errorf("%w: k must not be negative (got %d)", domain.ErrInvalidQuery, req.K)
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		reasons := s.degradations()
		return s.composer.Compose(EmptyCorpusAnswer, nil, domain.ResponseMetrics{
			Degraded:       len(reasons) > 0,
			LLMProvider:    s.llm.Provider().String(),
			FallbackReason: strings.Join(reasons, "; "),
		}), nil
	}

	k := req.K
	switch {
	case k == 0:
		k = min(s.defaultK, total)
	case k > total:
		return nil, fmt.Errorf("%w: k=%d exceeds the %d indexed chunks", domain.ErrInvalidQuery, k, total)
	}

	logger.Debug("ask: %q k=%d", query, k)

	start := time.Now()
	hits, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	retrieval := time.Since(start)

	chunks := make([]domain.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}

	reasons := s.degradations()
	provider := s.llm.Provider()

	start = time.Now()
	answer, err := s.llm.Generate(ctx, query, chunks)
	if err != nil {
		if domain.IsLLMProviderError(err) {
			logger.Warn("ask: %s failed, answering with %s: %v", provider, s.fallback.Provider(), err)
		} else {
			logger.Error("ask: unexpected %s error, answering with %s: %v", provider, s.fallback.Provider(), err)
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", provider, err))
		provider = s.fallback.Provider()
		answer, err = s.fallback.Generate(ctx, query, chunks)
		if err != nil {
			return nil, fmt.Errorf("fallback generation: %w", err)
		}
	}
	generation := time.Since(start)

	degraded := len(reasons) > 0
	snap := s.recorder.RecordQuery(retrieval, generation, degraded, provider.String())

	return s.composer.Compose(answer, hits, domain.ResponseMetrics{
		RetrievalMs:            millis(retrieval),
		GenerationMs:           millis(generation),
		AvgRetrievalLatencyMs:  snap.AvgRetrievalLatencyMs,
		AvgGenerationLatencyMs: snap.AvgGenerationLatencyMs,
		Degraded:               degraded,
		LLMProvider:            provider.String(),
		FallbackReason:         strings.Join(reasons, "; "),
	}), nil
}

// degradations lists the fallbacks currently in effect.
func (s *AskService) degradations() []string {
	reasons := append([]string(nil), s.startup...)
	if degraded, reason := degradedBackend(s.store); degraded {
		reasons = append(reasons, reason)
	}
	return reasons
}
