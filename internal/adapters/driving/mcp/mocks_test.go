package mcp

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	resp *domain.AskResponse
	err  error
	got  domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	m.got = req
	return m.resp, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	calls  int
}

func (m *mockIngestService) Ingest(_ context.Context) (*domain.IngestResult, error) {
	m.calls++
	return m.result, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentRecord
	document  *domain.DocumentRecord
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	health domain.Health
}

func (m *mockStatusService) Health(_ context.Context) domain.Health {
	return m.health
}

func (m *mockStatusService) Metrics(_ context.Context) domain.ServiceMetrics {
	return domain.ServiceMetrics{}
}
