package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/breaker"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/vector/failover"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

func TestInitResult_CloseNil(t *testing.T) {
	result := &InitResult{}
	assert.NoError(t, result.Close())
	assert.Empty(t, result.Degradations())
}

func TestInitialise_Defaults(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory

	r := Initialise(context.Background(), s, nil)
	defer r.Close()

	assert.Equal(t, "local-384", r.EmbeddingService.ModelName())
	assert.Equal(t, 384, r.EmbeddingService.Dimensions())
	assert.Equal(t, "memory", r.VectorStore.Name())
	assert.Equal(t, domain.LLMProviderStub, r.LLMService.Provider())
	assert.Empty(t, r.Warnings)
	assert.Empty(t, r.Degradations())
}

func TestInitialise_OpenAIWithoutKeyFallsBackToStub(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory
	s.LLM.Provider = domain.LLMProviderOpenAI

	r := Initialise(context.Background(), s, nil)

	assert.Equal(t, domain.LLMProviderStub, r.LLMService.Provider())
	assert.Contains(t, r.LLMFallbackReason, "API key is required")
	assert.Len(t, r.Degradations(), 1)
	assert.NotEmpty(t, r.Warnings)
}

func TestInitialise_LLMFailedPingFallsBackToStub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory
	s.LLM.Provider = domain.LLMProviderOpenAI
	s.LLM.OpenAIAPIKey = "sk-test"
	s.LLM.OpenAIBaseURL = srv.URL

	r := Initialise(context.Background(), s, nil)

	assert.Equal(t, domain.LLMProviderStub, r.LLMService.Provider())
	assert.Contains(t, r.LLMFallbackReason, "failed startup check")
}

func TestInitialise_LLMSkipsPingWhenDisabled(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory
	s.LLM.Provider = domain.LLMProviderOpenAI
	s.LLM.OpenAIAPIKey = "sk-test"
	s.LLM.OpenAIBaseURL = "http://127.0.0.1:1"
	s.LLM.ValidateOnStart = false

	r := Initialise(context.Background(), s, nil)

	_, ok := r.LLMService.(*breaker.LLMService)
	assert.True(t, ok, "expected provider wrapped in circuit breaker")
	assert.Equal(t, domain.LLMProviderOpenAI, r.LLMService.Provider())
	assert.Empty(t, r.LLMFallbackReason)
}

func TestInitialise_HealthyOllamaIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory
	s.LLM.Provider = domain.LLMProviderOllama
	s.LLM.OllamaHost = srv.URL

	r := Initialise(context.Background(), s, &stubPrompts{})

	_, ok := r.LLMService.(*breaker.LLMService)
	assert.True(t, ok)
	assert.Equal(t, domain.LLMProviderOllama, r.LLMService.Provider())
	assert.Equal(t, domain.DefaultOllamaModel, r.LLMService.ModelName())
}

func TestInitialise_UnknownProvidersFallBack(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = "cassandra"
	s.LLM.Provider = "gemini"
	s.Embedding.Provider = "word2vec"

	r := Initialise(context.Background(), s, nil)

	assert.Equal(t, "local-384", r.EmbeddingService.ModelName())
	assert.Equal(t, "memory", r.VectorStore.Name())
	assert.Equal(t, domain.LLMProviderStub, r.LLMService.Provider())
	assert.Len(t, r.Degradations(), 3)
}

func TestInitialise_UnreachableEmbedderFallsBackToHash(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreMemory
	s.Embedding.Provider = domain.EmbeddingProviderOllama
	s.LLM.OllamaHost = "http://127.0.0.1:1"

	r := Initialise(context.Background(), s, nil)

	assert.Equal(t, "local-384", r.EmbeddingService.ModelName())
	assert.Contains(t, r.EmbeddingFallbackReason, "unreachable")
}

func TestInitialise_UnreachableQdrantUsesMemory(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.QdrantHost = "127.0.0.1"
	s.Vector.QdrantPort = 1
	s.Vector.Timeout = 300 * time.Millisecond

	r := Initialise(context.Background(), s, nil)
	defer r.Close()

	fo, ok := r.VectorStore.(*failover.Store)
	require.True(t, ok)
	assert.Equal(t, "memory", fo.Name())
	assert.Equal(t, "qdrant", fo.PrimaryName())
	degraded, _ := fo.Degraded()
	assert.True(t, degraded)
	assert.Empty(t, r.VectorFallbackReason)
	assert.NotEmpty(t, r.Warnings)
}

func TestInitialise_Chromem(t *testing.T) {
	s := domain.DefaultSettings()
	s.Vector.Kind = domain.VectorStoreChromem
	s.Vector.ChromemPath = filepath.Join(t.TempDir(), "chromem")

	r := Initialise(context.Background(), s, nil)
	defer r.Close()

	assert.Equal(t, "chromem", r.VectorStore.Name())
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.EmbeddingProvider
		apiKey    string
		wantModel string
		wantErr   bool
	}{
		{name: "hash", provider: domain.EmbeddingProviderHash, wantModel: "local-384"},
		{name: "ollama", provider: domain.EmbeddingProviderOllama, wantModel: "nomic-embed-text"},
		{name: "openai", provider: domain.EmbeddingProviderOpenAI, apiKey: "sk-x", wantModel: "text-embedding-3-small"},
		{name: "openai without key", provider: domain.EmbeddingProviderOpenAI, wantErr: true},
		{name: "unknown", provider: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.DefaultSettings()
			s.Embedding.Provider = tt.provider
			s.LLM.OpenAIAPIKey = tt.apiKey

			svc, err := CreateEmbeddingService(s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, 384, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.LLMSettings
		want     domain.LLMProvider
		wantErr  error
	}{
		{name: "stub", settings: domain.LLMSettings{Provider: domain.LLMProviderStub}, want: domain.LLMProviderStub},
		{name: "ollama", settings: domain.LLMSettings{Provider: domain.LLMProviderOllama}, want: domain.LLMProviderOllama},
		{name: "openai", settings: domain.LLMSettings{Provider: domain.LLMProviderOpenAI, OpenAIAPIKey: "sk-x"}, want: domain.LLMProviderOpenAI},
		{name: "openai without key", settings: domain.LLMSettings{Provider: domain.LLMProviderOpenAI}, wantErr: domain.ErrLLMAuth},
		{name: "anthropic", settings: domain.LLMSettings{Provider: domain.LLMProviderAnthropic, AnthropicAPIKey: "k"}, want: domain.LLMProviderAnthropic},
		{name: "anthropic without key", settings: domain.LLMSettings{Provider: domain.LLMProviderAnthropic}, wantErr: domain.ErrLLMAuth},
		{name: "unknown", settings: domain.LLMSettings{Provider: "x"}, wantErr: domain.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Provider())
		})
	}
}

type stubPrompts struct{}

func (stubPrompts) Load(string) (string, error) { return "Q %s S %s", nil }
func (stubPrompts) Reload()                     {}

var _ driven.PromptStore = stubPrompts{}
