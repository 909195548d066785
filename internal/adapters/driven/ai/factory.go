// Package ai resolves the embedding, vector store and LLM adapters from settings.
//
// Resolution happens once at startup. A backend that cannot be created or does
// not answer its startup check is replaced by the local equivalent, and the
// reason is recorded so it can be surfaced on the health endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	hashembed "github.com/custodia-labs/policyhelper/internal/adapters/driven/embedding/hash"
	minilmembed "github.com/custodia-labs/policyhelper/internal/adapters/driven/embedding/minilm"
	ollamaembed "github.com/custodia-labs/policyhelper/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/policyhelper/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/breaker"
	ollamallm "github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/stub"
	chromemstore "github.com/custodia-labs/policyhelper/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/vector/failover"
	memorystore "github.com/custodia-labs/policyhelper/internal/adapters/driven/vector/memory"
	qdrantstore "github.com/custodia-labs/policyhelper/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the resolved adapters.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorStore      driven.VectorStore

	// Warnings are non-fatal issues found during resolution.
	Warnings []string

	// EmbeddingFallbackReason is set when the configured embedder was replaced by hash.
	EmbeddingFallbackReason string

	// LLMFallbackReason is set when the configured LLM provider was replaced by stub.
	LLMFallbackReason string

	// VectorFallbackReason is set when the configured store could not be created.
	// Runtime failover is reported by the store itself.
	VectorFallbackReason string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.VectorStore != nil {
		errs = append(errs, r.VectorStore.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Degradations returns every startup fallback reason.
func (r *InitResult) Degradations() []string {
	var out []string
	for _, reason := range []string{r.EmbeddingFallbackReason, r.VectorFallbackReason, r.LLMFallbackReason} {
		if reason != "" {
			out = append(out, reason)
		}
	}
	return out
}

func (r *InitResult) warn(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger.Warn("%s", msg)
	return msg
}

// Initialise resolves all adapters. It never fails: every backend has a local
// fallback. prompts may be nil.
func Initialise(ctx context.Context, settings domain.Settings, prompts driven.PromptStore) *InitResult {
	r := &InitResult{}
	r.EmbeddingService = r.resolveEmbedding(ctx, settings)
	r.VectorStore = r.resolveVectorStore(ctx, settings.Vector, r.EmbeddingService.Dimensions())
	r.LLMService = r.resolveLLM(ctx, settings.LLM, prompts)
	return r
}

func (r *InitResult) resolveEmbedding(ctx context.Context, settings domain.Settings) driven.EmbeddingService {
	dims := settings.Embedding.Dimensions
	if dims <= 0 {
		dims = domain.DefaultEmbeddingDim
	}
	local := func() driven.EmbeddingService { return hashembed.NewEmbeddingService(dims) }

	if settings.Embedding.Provider == domain.EmbeddingProviderHash {
		return local()
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		r.EmbeddingFallbackReason = r.warn("embedding: %v; using hash", err)
		return local()
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		r.EmbeddingFallbackReason = r.warn("embedding: %s unreachable (%v); using hash", settings.Embedding.Provider, err)
		return local()
	}

	logger.Info("embedding: %s (%s, %d dims)", settings.Embedding.Provider, svc.ModelName(), svc.Dimensions())
	return svc
}

func (r *InitResult) resolveVectorStore(ctx context.Context, settings domain.VectorStoreSettings, dims int) driven.VectorStore {
	switch settings.Kind {
	case domain.VectorStoreMemory:
		return memorystore.New()

	case domain.VectorStoreChromem:
		store, err := chromemstore.New(chromemstore.Config{
			Path:       settings.ChromemPath,
			Collection: settings.Collection,
			Dimensions: dims,
		})
		if err != nil {
			r.VectorFallbackReason = r.warn("vector store: chromem: %v; using memory", err)
			return memorystore.New()
		}
		return store

	case domain.VectorStoreQdrant:
		store, err := qdrantstore.New(qdrantstore.Config{
			Host:       settings.QdrantHost,
			Port:       settings.QdrantPort,
			APIKey:     settings.QdrantAPIKey,
			UseTLS:     settings.QdrantUseTLS,
			Collection: settings.Collection,
			Dimensions: dims,
			Timeout:    settings.Timeout,
		})
		if err != nil {
			r.VectorFallbackReason = r.warn("vector store: qdrant: %v; using memory", err)
			return memorystore.New()
		}
		fo := failover.New(store, memorystore.New())
		fo.Start(ctx, settings.Timeout)
		if degraded, reason := fo.Degraded(); degraded {
			r.Warnings = append(r.Warnings, "vector store: "+reason)
		}
		return fo

	default:
		r.VectorFallbackReason = r.warn("vector store: unknown kind %q; using memory", settings.Kind)
		return memorystore.New()
	}
}

func (r *InitResult) resolveLLM(ctx context.Context, settings domain.LLMSettings, prompts driven.PromptStore) driven.LLMService {
	if settings.Provider == domain.LLMProviderStub {
		return stub.NewLLMService()
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		r.LLMFallbackReason = r.warn("llm: %v; using stub", err)
		return stub.NewLLMService()
	}

	if settings.ValidateOnStart {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := svc.Ping(pingCtx); err != nil {
			_ = svc.Close()
			r.LLMFallbackReason = r.warn("llm: %s failed startup check (%v); using stub", settings.Provider, err)
			return stub.NewLLMService()
		}
	}

	wrapped := breaker.New(svc, breaker.Config{CallTimeout: settings.Timeout})
	if prompts != nil {
		wrapped.SetPromptStore(prompts)
	}
	logger.Info("llm: %s (%s)", settings.Provider, svc.ModelName())
	return wrapped
}

// CreateEmbeddingService creates the embedding service named by settings
// without contacting it.
func CreateEmbeddingService(settings domain.Settings) (driven.EmbeddingService, error) {
	emb := settings.Embedding
	model := emb.Model
	if model == domain.DefaultEmbeddingModel {
		model = ""
	}

	switch emb.Provider {
	case domain.EmbeddingProviderHash:
		return hashembed.NewEmbeddingService(emb.Dimensions), nil

	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.LLM.OllamaHost,
			Model:      model,
			Dimensions: emb.Dimensions,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.LLM.OpenAIAPIKey,
			BaseURL:    settings.LLM.OpenAIBaseURL,
			Model:      model,
			Dimensions: emb.Dimensions,
		})

	case domain.EmbeddingProviderMiniLM:
		return minilmembed.NewEmbeddingService(minilmembed.Config{
			Model:      model,
			ModelDir:   emb.ModelDir,
			Dimensions: emb.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, emb.Provider)
	}
}

// CreateLLMService creates the LLM provider named by settings without
// contacting it. The result is not wrapped in a circuit breaker.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.LLMProviderStub:
		return stub.NewLLMService(), nil

	case domain.LLMProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.OllamaHost,
			Model:   settings.OllamaModel,
			Timeout: settings.Timeout,
		}), nil

	case domain.LLMProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.OpenAIAPIKey,
			BaseURL: settings.OpenAIBaseURL,
			Model:   settings.OpenAIModel,
			Timeout: settings.Timeout,
		})

	case domain.LLMProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.AnthropicAPIKey,
			Model:   settings.AnthropicModel,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}
