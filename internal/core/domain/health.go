package domain

// HealthStatus is the coarse service state.
type HealthStatus string

// Health states.
const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
)

// Health reports the active backends and any degradation.
type Health struct {
	Status                HealthStatus `json:"status"`
	ActiveLLMProvider     string       `json:"active_llm_provider"`
	ConfiguredLLMProvider string       `json:"configured_llm_provider"`
	ActiveVectorStore     string       `json:"active_vector_store"`
	ConfiguredVectorStore string       `json:"configured_vector_store"`
	EmbeddingModel        string       `json:"embedding_model"`
	DegradedReasons       []string     `json:"degraded_reasons"`
	ConfigValid           bool         `json:"config_valid"`
	ConfigIssues          []string     `json:"config_issues"`
	ConfigWarnings        []string     `json:"config_warnings"`
}
