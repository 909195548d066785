package domain

// MetricsSnapshot is a consistent copy of the process-lifetime counters.
type MetricsSnapshot struct {
	DocumentsIndexed       int64   `json:"documents_indexed"`
	ChunksIndexed          int64   `json:"chunks_indexed"`
	QueriesServed          int64   `json:"queries_served"`
	DegradedResponses      int64   `json:"degraded_responses"`
	IngestionRuns          int64   `json:"ingestion_runs"`
	AvgRetrievalLatencyMs  float64 `json:"avg_retrieval_latency_ms"`
	AvgGenerationLatencyMs float64 `json:"avg_generation_latency_ms"`
}

// ServiceMetrics is the metrics endpoint payload.
type ServiceMetrics struct {
	MetricsSnapshot

	TotalDocs      int    `json:"total_docs"`
	TotalChunks    int    `json:"total_chunks"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
	VectorStore    string `json:"vector_store"`

	// LLMHealthy is false while the LLM is being bypassed for its fallback.
	LLMHealthy bool `json:"llm_healthy"`
}
