// Package domain defines the core business entities for policyhelper.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded policy document
//   - Chunk: A retrievable span of a document with its section label
//   - Citation: A (title, section) projection of a retrieved chunk
//   - AskRequest / AskResponse: The question answering contract
//   - MetricsSnapshot: Counters and running latency averages
//   - Settings: Runtime configuration and its validation report
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
