package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes the document registry.
type DocumentService struct {
	registry driven.DocumentRegistry
}

// NewDocumentService creates a new document service.
func NewDocumentService(registry driven.DocumentRegistry) *DocumentService {
	return &DocumentService{registry: registry}
}

// List returns all indexed documents ordered by title.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	if s.registry == nil {
		return []domain.DocumentRecord{}, nil
	}
	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.DocumentRecord{}
	}
	return docs, nil
}

// Get retrieves a document entry by ID.
func (s *DocumentService) Get(ctx context.Context, docID string) (*domain.DocumentRecord, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if s.registry == nil {
		return nil, domain.ErrNotFound
	}
	return s.registry.Get(ctx, docID)
}
