package domain

// DefaultK is the number of chunks retrieved when a request does not set k.
const DefaultK = 4

// AskRequest is a question over the indexed corpus.
type AskRequest struct {
	// Query is the natural-language question. Must be non-empty after trimming.
	Query string `json:"query"`

	// K is the number of chunks to retrieve. Zero selects the default,
	// bounded by the corpus size.
	K int `json:"k"`
}

// ChunkView is a retrieved chunk as exposed to clients.
type ChunkView struct {
	Title   string  `json:"title"`
	Section string  `json:"section"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// ResponseMetrics describes how a single answer was produced.
type ResponseMetrics struct {
	RetrievalMs            float64 `json:"retrieval_ms"`
	GenerationMs           float64 `json:"generation_ms"`
	AvgRetrievalLatencyMs  float64 `json:"avg_retrieval_latency_ms"`
	AvgGenerationLatencyMs float64 `json:"avg_generation_latency_ms"`

	// Degraded is set when any fallback contributed to this answer.
	Degraded bool `json:"degraded"`

	// LLMProvider is the provider that actually produced the answer.
	LLMProvider string `json:"llm_provider"`

	// FallbackReason explains a degraded answer, empty otherwise.
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// AskResponse is the answer to an AskRequest.
type AskResponse struct {
	Answer    string          `json:"answer"`
	Citations []Citation      `json:"citations"`
	Chunks    []ChunkView     `json:"chunks"`
	Metrics   ResponseMetrics `json:"metrics"`
}

// IngestWarning reports a source file that was skipped.
type IngestWarning struct {
	SourcePath string `json:"source_path"`
	Error      string `json:"error"`
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	IndexedDocs   int             `json:"indexed_docs"`
	IndexedChunks int             `json:"indexed_chunks"`
	Warnings      []IngestWarning `json:"warnings"`
}
