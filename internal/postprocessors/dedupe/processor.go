// Package dedupe drops repeated chunks within a document.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/identity"
)

// Processor removes chunks whose section and whitespace-normalised text
// repeat an earlier chunk of the same document, such as boilerplate
// footers. Surviving chunks are renumbered contiguously.
type Processor struct{}

// New creates a dedupe processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process filters chunks and reassigns order indices and IDs.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := c.Section + "\x00" + strings.Join(strings.Fields(c.Text), " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		c.OrderIndex = len(out)
		c.ID = identity.ChunkID(doc.ID, c.OrderIndex)
		out = append(out, c)
	}

	return out, nil
}
