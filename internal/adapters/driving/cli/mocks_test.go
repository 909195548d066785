package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

type mockAskService struct {
	resp *domain.AskResponse
	err  error
	got  domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	m.got = req
	return m.resp, m.err
}

type mockIngestService struct {
	res *domain.IngestResult
	err error
}

func (m *mockIngestService) Ingest(context.Context) (*domain.IngestResult, error) {
	return m.res, m.err
}

type mockStatusService struct {
	health     domain.Health
	llmTripped bool
}

func (m *mockStatusService) Health(context.Context) domain.Health { return m.health }

func (m *mockStatusService) Metrics(context.Context) domain.ServiceMetrics {
	return domain.ServiceMetrics{TotalDocs: 3, TotalChunks: 11, LLMModel: "local-stub", LLMHealthy: !m.llmTripped}
}

type mockDocumentService struct {
	docs []domain.DocumentRecord
	err  error
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].DocID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// testMocks are the services installed by setupTestServices.
type testMocks struct {
	ask      *mockAskService
	ingest   *mockIngestService
	status   *mockStatusService
	document *mockDocumentService
}

// setupTestServices installs mock services and disables bootstrapping.
// The returned function restores the previous state.
func setupTestServices() (*testMocks, func()) {
	m := &testMocks{
		ask: &mockAskService{resp: &domain.AskResponse{
			Answer:    "Items can be returned within 14 days.",
			Citations: []domain.Citation{{Title: "Returns_and_Refunds.md", Section: "Return Window"}},
			Chunks: []domain.ChunkView{
				{Title: "Returns_and_Refunds.md", Section: "Return Window", Text: "within 14 days", Score: 0.7},
			},
			Metrics: domain.ResponseMetrics{LLMProvider: "stub", RetrievalMs: 2, GenerationMs: 1},
		}},
		ingest: &mockIngestService{res: &domain.IngestResult{
			IndexedDocs:   2,
			IndexedChunks: 7,
			Warnings:      []domain.IngestWarning{},
		}},
		status: &mockStatusService{health: domain.Health{
			Status:                domain.HealthOK,
			ActiveLLMProvider:     "stub",
			ConfiguredLLMProvider: "stub",
			ActiveVectorStore:     "memory",
			ConfiguredVectorStore: "memory",
			EmbeddingModel:        "local-384",
		}},
		document: &mockDocumentService{docs: []domain.DocumentRecord{{
			DocID:       "doc-1",
			Title:       "Returns_and_Refunds.md",
			SourcePath:  "data/Returns_and_Refunds.md",
			ContentHash: "abc123",
			ChunkCount:  3,
			IndexedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}}},
	}

	oldAsk, oldIngest, oldStatus, oldDocument := askService, ingestService, statusService, documentService
	oldBootstrap := bootstrap

	askService = m.ask
	ingestService = m.ingest
	statusService = m.status
	documentService = m.document
	bootstrap = func(context.Context) (func(), error) { return nil, nil }

	return m, func() {
		askService, ingestService, statusService, documentService = oldAsk, oldIngest, oldStatus, oldDocument
		bootstrap = oldBootstrap
	}
}

// run executes the root command with args and returns the combined output.
func run(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
