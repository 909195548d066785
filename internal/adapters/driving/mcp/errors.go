// Package mcp provides an MCP (Model Context Protocol) server adapter for policyhelper.
// It lets AI assistants ask policy questions and trigger ingestion.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
