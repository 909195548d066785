package domain

import (
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// LLMProvider identifies an answer generation backend.
type LLMProvider string

// Available LLM providers.
const (
	// LLMProviderStub is the deterministic offline template.
	LLMProviderStub LLMProvider = "stub"

	// LLMProviderOpenAI is OpenAI cloud API.
	LLMProviderOpenAI LLMProvider = "openai"

	// LLMProviderOllama is local Ollama instance.
	LLMProviderOllama LLMProvider = "ollama"

	// LLMProviderAnthropic is Anthropic cloud API.
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// IsValid returns true if the LLM provider is recognised.
func (p LLMProvider) IsValid() bool {
	switch p {
	case LLMProviderStub, LLMProviderOpenAI, LLMProviderOllama, LLMProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p LLMProvider) RequiresAPIKey() bool {
	return p == LLMProviderOpenAI || p == LLMProviderAnthropic
}

// String returns the string representation.
func (p LLMProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p LLMProvider) Description() string {
	switch p {
	case LLMProviderStub:
		return "Stub (offline template)"
	case LLMProviderOllama:
		return "Ollama (local)"
	case LLMProviderOpenAI:
		return "OpenAI (cloud)"
	case LLMProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHash is the deterministic local hashing embedder.
	EmbeddingProviderHash EmbeddingProvider = "hash"

	// EmbeddingProviderOllama is local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderMiniLM runs all-MiniLM-L6-v2 in process.
	EmbeddingProviderMiniLM EmbeddingProvider = "minilm"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHash, EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderMiniLM:
		return true
	default:
		return false
	}
}

// IsExternal returns true if the provider depends on something outside the process.
func (p EmbeddingProvider) IsExternal() bool {
	return p != EmbeddingProviderHash
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// VectorStoreKind identifies a vector store backend.
type VectorStoreKind string

// Available vector stores.
const (
	// VectorStoreQdrant is the persistent networked backend.
	VectorStoreQdrant VectorStoreKind = "qdrant"

	// VectorStoreMemory is the in-process linear-scan backend.
	VectorStoreMemory VectorStoreKind = "memory"

	// VectorStoreChromem is the embedded persistent backend.
	VectorStoreChromem VectorStoreKind = "chromem"
)

// IsValid returns true if the vector store is recognised.
func (k VectorStoreKind) IsValid() bool {
	switch k {
	case VectorStoreQdrant, VectorStoreMemory, VectorStoreChromem:
		return true
	default:
		return false
	}
}

// IsPersistent returns true if the store survives process restarts.
func (k VectorStoreKind) IsPersistent() bool {
	return k == VectorStoreQdrant || k == VectorStoreChromem
}

// String returns the string representation.
func (k VectorStoreKind) String() string {
	return string(k)
}

// Defaults for Settings.
const (
	DefaultCollectionName     = "policy_helper"
	DefaultEmbeddingDim       = 384
	DefaultEmbeddingModel     = "local-384"
	DefaultChunkSize          = 700
	DefaultChunkOverlap       = 80
	DefaultOversample         = 3
	DefaultMMRLambda          = 0.3
	DefaultIngestWorkers      = 4
	DefaultLLMTimeout         = 20 * time.Second
	DefaultVectorStoreTimeout = 3 * time.Second
	DefaultQdrantHost         = "localhost"
	DefaultQdrantPort         = 6334
	DefaultOllamaHost         = "http://localhost:11434"
	DefaultOpenAIModel        = "gpt-4o-mini"
	DefaultOllamaModel        = "llama3.2:1b"
	DefaultAnthropicModel     = "claude-3-5-sonnet-latest"
	DefaultDataDir            = "./data"
	DefaultChromemPath        = "./chromem"
	DefaultHTTPAddr           = ":8000"
	DefaultWatchDebounce      = 2 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "auto"
)

// LLMSettings holds answer generation configuration.
type LLMSettings struct {
	Provider LLMProvider

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	OllamaHost  string
	OllamaModel string

	AnthropicAPIKey string
	AnthropicModel  string

	// Timeout bounds every generate call.
	Timeout time.Duration

	// ValidateOnStart pings the provider once at startup.
	ValidateOnStart bool
}

// EmbeddingSettings holds embedding configuration.
type EmbeddingSettings struct {
	Provider EmbeddingProvider

	// Model is the backend model name; ignored by the hash embedder.
	Model string

	// Dimensions is D, the stored vector length.
	Dimensions int

	// ModelDir caches downloaded in-process models.
	ModelDir string
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	Kind       VectorStoreKind
	Collection string
	Timeout    time.Duration

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantUseTLS bool

	ChromemPath string
}

// RetrievalSettings holds chunking and ranking configuration.
type RetrievalSettings struct {
	ChunkSize    int
	ChunkOverlap int
	DefaultK     int
	Oversample   int
	MMREnabled   bool
	MMRLambda    float64
}

// IngestSettings holds corpus loading configuration.
type IngestSettings struct {
	DataDir       string
	Recursive     bool
	Watch         bool
	WatchDebounce time.Duration
	Workers       int

	// RegistryPath is the sqlite registry file; empty keeps the registry in memory.
	RegistryPath string
}

// ServerSettings holds driving adapter configuration.
type ServerSettings struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// Settings is the complete runtime configuration.
type Settings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Vector    VectorStoreSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	Server    ServerSettings
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			Provider:        LLMProviderStub,
			OpenAIModel:     DefaultOpenAIModel,
			OllamaHost:      DefaultOllamaHost,
			OllamaModel:     DefaultOllamaModel,
			AnthropicModel:  DefaultAnthropicModel,
			Timeout:         DefaultLLMTimeout,
			ValidateOnStart: true,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHash,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDim,
		},
		Vector: VectorStoreSettings{
			Kind:        VectorStoreQdrant,
			Collection:  DefaultCollectionName,
			Timeout:     DefaultVectorStoreTimeout,
			QdrantHost:  DefaultQdrantHost,
			QdrantPort:  DefaultQdrantPort,
			ChromemPath: DefaultChromemPath,
		},
		Retrieval: RetrievalSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			DefaultK:     DefaultK,
			Oversample:   DefaultOversample,
			MMREnabled:   true,
			MMRLambda:    DefaultMMRLambda,
		},
		Ingest: IngestSettings{
			DataDir:       DefaultDataDir,
			WatchDebounce: DefaultWatchDebounce,
			Workers:       DefaultIngestWorkers,
		},
		Server: ServerSettings{
			HTTPAddr:  DefaultHTTPAddr,
			LogLevel:  DefaultLogLevel,
			LogFormat: DefaultLogFormat,
		},
	}
}

// ConfigReport is the outcome of Settings.Validate.
// Issues are misconfigurations that force a fallback; warnings are advisory.
type ConfigReport struct {
	Issues   []string
	Warnings []string
}

// Valid returns true when there are no issues.
func (r ConfigReport) Valid() bool {
	return len(r.Issues) == 0
}

// Validate inspects the settings without touching any backend.
// It never fails; callers decide what to do with the report.
func (s Settings) Validate() ConfigReport {
	var r ConfigReport

	switch {
	case !s.LLM.Provider.IsValid():
		r.Issues = append(r.Issues, fmt.Sprintf("unknown LLM_PROVIDER %q, using stub", s.LLM.Provider))
	case s.LLM.Provider == LLMProviderOpenAI && s.LLM.OpenAIAPIKey == "":
		r.Issues = append(r.Issues, "LLM_PROVIDER=openai but OPENAI_API_KEY is not set")
	case s.LLM.Provider == LLMProviderOpenAI && !strings.HasPrefix(s.LLM.OpenAIAPIKey, "sk-"):
		r.Issues = append(r.Issues, "OPENAI_API_KEY does not look like an OpenAI key (expected sk- prefix)")
	case s.LLM.Provider == LLMProviderAnthropic && s.LLM.AnthropicAPIKey == "":
		r.Issues = append(r.Issues, "LLM_PROVIDER=anthropic but ANTHROPIC_API_KEY is not set")
	case s.LLM.Provider == LLMProviderOllama && s.LLM.OllamaHost == "":
		r.Issues = append(r.Issues, "LLM_PROVIDER=ollama but OLLAMA_HOST is not set")
	}

	if !s.Embedding.Provider.IsValid() {
		r.Issues = append(r.Issues, fmt.Sprintf("unknown EMBEDDING_PROVIDER %q, using hash", s.Embedding.Provider))
	}
	if s.Embedding.Dimensions <= 0 {
		r.Issues = append(r.Issues, "EMBEDDING_DIM must be positive")
	}

	if !s.Vector.Kind.IsValid() {
		r.Issues = append(r.Issues, fmt.Sprintf("unknown VECTOR_STORE %q, using memory", s.Vector.Kind))
	}

	if s.Retrieval.ChunkSize <= 0 {
		r.Issues = append(r.Issues, "CHUNK_SIZE must be positive")
	} else {
		if s.Retrieval.ChunkOverlap >= s.Retrieval.ChunkSize {
			r.Issues = append(r.Issues, "CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
		}
		if s.Retrieval.ChunkSize < 100 {
			r.Warnings = append(r.Warnings, "CHUNK_SIZE below 100 may produce poor retrieval")
		}
	}
	if s.Retrieval.ChunkOverlap < 0 {
		r.Issues = append(r.Issues, "CHUNK_OVERLAP must not be negative")
	}
	if s.Retrieval.MMRLambda < 0 || s.Retrieval.MMRLambda > 1 {
		r.Warnings = append(r.Warnings, "MMR_LAMBDA outside [0,1]")
	}
	if s.Retrieval.Oversample < 1 {
		r.Warnings = append(r.Warnings, "RETRIEVAL_OVERSAMPLE below 1, using 1")
	}

	return r
}
