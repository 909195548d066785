// Package postprocessors turns normalised documents into retrievable chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// ErrBrokenChunkSequence is returned when processors leave chunks that do not
// reference the document or whose order indices are not contiguous from 0.
var ErrBrokenChunkSequence = errors.New("broken chunk sequence")

// Pipeline chains PostProcessors and runs them in order.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order and checks
// the resulting chunk sequence before handing it to the indexer.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	if err := checkSequence(doc, chunks); err != nil {
		return nil, err
	}

	return chunks, nil
}

func checkSequence(doc *domain.Document, chunks []domain.Chunk) error {
	for i, c := range chunks {
		if c.DocID != doc.ID {
			return fmt.Errorf("%w: chunk %d references %q, want %q", ErrBrokenChunkSequence, i, c.DocID, doc.ID)
		}
		if c.OrderIndex != i {
			return fmt.Errorf("%w: chunk %d has order index %d", ErrBrokenChunkSequence, i, c.OrderIndex)
		}
	}
	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
