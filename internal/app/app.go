// Package app wires the adapters and services into a running policyhelper
// instance and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/policyhelper/internal/adapters/driven/ai"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/llm/stub"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/metrics/promsink"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyhelper/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policyhelper/internal/connectors/filesystem"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/core/services"
	"github.com/custodia-labs/policyhelper/internal/logger"
	"github.com/custodia-labs/policyhelper/internal/normalisers"
	"github.com/custodia-labs/policyhelper/internal/postprocessors"
)

// Options control how an App resolves its configuration.
type Options struct {
	// ConfigPath is an optional TOML file. Falls back to $CONFIG_FILE.
	ConfigPath string

	// DotEnvPath is an optional .env file. Defaults to ./.env.
	DotEnvPath string

	// LookupEnv reads the environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// PromptDir holds editable prompt templates. Defaults to ~/.policyhelper/prompts.
	PromptDir string

	// Verbose forces debug logging regardless of LOG_LEVEL.
	Verbose bool
}

// App holds the wired services.
type App struct {
	Settings domain.Settings

	Ask       *services.AskService
	Ingest    *services.IngestService
	Status    *services.StatusService
	Documents *services.DocumentService

	backends *ai.InitResult
	registry driven.DocumentRegistry
	source   *filesystem.Source
	sink     *promsink.Sink
}

// New loads the configuration and resolves every backend. Unreachable or
// misconfigured backends are replaced by local fallbacks; only an unreadable
// configuration or registry is an error.
func New(ctx context.Context, opts Options) (*App, error) {
	loader := file.Loader{
		ConfigPath: opts.ConfigPath,
		DotEnvPath: opts.DotEnvPath,
		LookupEnv:  opts.LookupEnv,
	}
	settings, loadWarnings, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Configure(settings.Server.LogLevel, settings.Server.LogFormat)
	if opts.Verbose {
		logger.SetVerbose(true)
	}
	for _, w := range loadWarnings {
		logger.Warn("config: %s", w)
	}
	report := settings.Validate()
	for _, issue := range report.Issues {
		logger.Warn("config: %s", issue)
	}
	for _, w := range report.Warnings {
		logger.Warn("config: %s", w)
	}

	registry, err := openRegistry(settings.Ingest.RegistryPath)
	if err != nil {
		return nil, err
	}

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(opts.PromptDir); err != nil {
		logger.Warn("prompts: %v; using built-in templates", err)
	} else {
		prompts = ps
	}

	backends := ai.Initialise(ctx, settings, prompts)

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Retrieval)
	if err != nil {
		_ = backends.Close()
		_ = registry.Close()
		return nil, fmt.Errorf("build chunking pipeline: %w", err)
	}

	norm := normalisers.NewDefaultRegistry()
	source := filesystem.New(settings.Ingest.DataDir,
		filesystem.WithRecursive(settings.Ingest.Recursive),
		filesystem.WithDebounce(settings.Ingest.WatchDebounce),
		filesystem.WithFilter(norm.Supports),
		filesystem.WithMIMETypes(normalisers.MIMETypeFor),
	)

	sink := promsink.New()
	recorder := services.NewMetricsRecorder(sink)
	retriever := services.NewRetriever(backends.EmbeddingService, backends.VectorStore, settings.Retrieval)

	ask := services.NewAskService(retriever, backends.VectorStore, backends.LLMService,
		stub.NewLLMService(), recorder, settings.Retrieval.DefaultK)
	ask.SetStartupDegradations(backends.Degradations())

	a := &App{
		Settings: settings,
		Ask:      ask,
		Ingest: services.NewIngestService(source, norm, pipeline, backends.EmbeddingService,
			backends.VectorStore, registry, recorder, settings.Ingest.Workers),
		Status: services.NewStatusService(services.StatusConfig{
			Settings:            settings,
			Embedder:            backends.EmbeddingService,
			Store:               backends.VectorStore,
			LLM:                 backends.LLMService,
			Registry:            registry,
			Recorder:            recorder,
			StartupDegradations: backends.Degradations(),
			LoaderWarnings:      loadWarnings,
		}),
		Documents: services.NewDocumentService(registry),
		backends:  backends,
		registry:  registry,
		source:    source,
		sink:      sink,
	}

	logger.Info("policyhelper ready: llm=%s embedding=%s store=%s data=%s",
		backends.LLMService.Provider(), backends.EmbeddingService.ModelName(),
		backends.VectorStore.Name(), settings.Ingest.DataDir)
	return a, nil
}

func openRegistry(path string) (driven.DocumentRegistry, error) {
	if path == "" {
		return memory.NewDocumentRegistry(), nil
	}
	store, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	return store, nil
}

// MetricsHandler serves the Prometheus exposition format.
func (a *App) MetricsHandler() http.Handler {
	return a.sink.Handler()
}

// Watch re-ingests the data directory whenever it changes, until ctx is
// cancelled. It returns immediately when watching is disabled.
func (a *App) Watch(ctx context.Context) error {
	if !a.Settings.Ingest.Watch {
		return nil
	}
	logger.Info("watching %s for changes", a.source.Name())
	return a.source.Watch(ctx, func() {
		if _, err := a.Ingest.Ingest(ctx); err != nil && ctx.Err() == nil {
			logger.Error("re-ingestion failed: %v", err)
		}
	})
}

// Close releases every backend.
func (a *App) Close() error {
	return errors.Join(a.backends.Close(), a.registry.Close())
}
