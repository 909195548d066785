package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the policy question to answer"`
	K     int    `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default 4)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string             `json:"answer"`
	Citations []domain.Citation  `json:"citations"`
	Chunks    []domain.ChunkView `json:"chunks"`
	Degraded  bool               `json:"degraded"`
	Provider  string             `json:"llm_provider"`
}

// IngestInput is the input schema for the ingest tool. It takes no arguments.
type IngestInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed policy documents, with citations",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Re-index the policy documents in the data directory",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Ask.Ask(ctx, domain.AskRequest{Query: input.Query, K: input.K})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    resp.Answer,
		Citations: resp.Citations,
		Chunks:    resp.Chunks,
		Degraded:  resp.Metrics.Degraded,
		Provider:  resp.Metrics.LLMProvider,
	}, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	res, err := s.ports.Ingest.Ingest(ctx)
	if err != nil {
		return nil, domain.IngestResult{}, err
	}
	return nil, *res, nil
}
