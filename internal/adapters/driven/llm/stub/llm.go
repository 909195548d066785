// Package stub provides the deterministic offline LLM.
package stub

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Template constants.
const (
	ModelName      = "stub"
	SummaryChars   = 600
	defaultSection = "Section"
)

// LLMService builds an answer from the retrieved chunks without any model.
// Identical (query, chunks) always give identical output.
type LLMService struct{}

// NewLLMService creates the stub.
func NewLLMService() *LLMService {
	return &LLMService{}
}

// Generate lists the sources and summarises the first characters of their text.
func (s *LLMService) Generate(_ context.Context, query string, chunks []domain.Chunk) (string, error) {
	return answer(query, chunks), nil
}

// answer renders the stub template.
func answer(query string, chunks []domain.Chunk) string {
	var b strings.Builder
	b.WriteString("Answer (stub): Based on the following sources:\n")
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n")

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		section := c.Section
		if section == "" {
			section = defaultSection
		}
		b.WriteString("- ")
		b.WriteString(c.Title)
		b.WriteString(" — ")
		b.WriteString(section)
		b.WriteString("\n")
		texts = append(texts, c.Text)
	}

	b.WriteString("Summary:\n")
	joined := strings.Join(texts, " ")
	if utf8.RuneCountInString(joined) > SummaryChars {
		b.WriteString(string([]rune(joined)[:SummaryChars]))
		b.WriteString("...")
	} else {
		b.WriteString(joined)
	}
	return b.String()
}

// Provider returns "stub".
func (s *LLMService) Provider() domain.LLMProvider {
	return domain.LLMProviderStub
}

// ModelName returns "stub".
func (s *LLMService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *LLMService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
