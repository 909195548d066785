package mcp

import (
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions over the corpus.
	Ask driving.AskService

	// Ingest reloads the corpus. Optional; the ingest tool is omitted without it.
	Ingest driving.IngestService

	// Document lists indexed documents.
	Document driving.DocumentService

	// Status reports health.
	Status driving.StatusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
