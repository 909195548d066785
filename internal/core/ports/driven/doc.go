// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Maps text to L2-normalised vectors of dimension D
//   - VectorStore: Chunk vector persistence and nearest-neighbour search
//   - LLMService: Turns a question and retrieved chunks into an answer
//   - DocumentSource: Loads raw documents from the corpus location
//   - NormaliserRegistry: Selects the normaliser for a raw document
//   - PostProcessorPipeline: Produces chunks from a normalised document
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DocumentRegistry: Document bookkeeping. Without it, document listing is empty.
//   - MetricsSink: External metrics export. Without it, metrics stay in process.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
