package services

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// primaryNamer is implemented by stores that wrap a configured primary.
type primaryNamer interface {
	PrimaryName() string
}

// StatusConfig holds the collaborators of a StatusService.
type StatusConfig struct {
	Settings domain.Settings
	Embedder driven.EmbeddingService
	Store    driven.VectorStore
	LLM      driven.LLMService
	Registry driven.DocumentRegistry
	Recorder *MetricsRecorder

	// StartupDegradations are fallbacks chosen while resolving adapters.
	StartupDegradations []string

	// LoaderWarnings are configuration values that were ignored.
	LoaderWarnings []string
}

// StatusService reports the active backends, degradation and metrics.
type StatusService struct {
	cfg    StatusConfig
	report domain.ConfigReport
}

// NewStatusService creates a status service. The settings are validated once.
func NewStatusService(cfg StatusConfig) *StatusService {
	report := cfg.Settings.Validate()
	report.Warnings = append(append([]string{}, cfg.LoaderWarnings...), report.Warnings...)
	return &StatusService{cfg: cfg, report: report}
}

// Health returns the active backends and degradation state.
func (s *StatusService) Health(_ context.Context) domain.Health {
	reasons := append([]string{}, s.cfg.StartupDegradations...)
	if degraded, reason := degradedBackend(s.cfg.Store); degraded {
		reasons = append(reasons, reason)
	}
	if degraded, reason := degradedBackend(s.cfg.LLM); degraded {
		reasons = append(reasons, reason)
	}

	configured := string(s.cfg.Settings.Vector.Kind)
	if p, ok := s.cfg.Store.(primaryNamer); ok {
		configured = p.PrimaryName()
	}

	status := domain.HealthOK
	if len(reasons) > 0 {
		status = domain.HealthDegraded
	}

	return domain.Health{
		Status:                status,
		ActiveLLMProvider:     s.cfg.LLM.Provider().String(),
		ConfiguredLLMProvider: string(s.cfg.Settings.LLM.Provider),
		ActiveVectorStore:     s.cfg.Store.Name(),
		ConfiguredVectorStore: configured,
		EmbeddingModel:        s.cfg.Embedder.ModelName(),
		DegradedReasons:       reasons,
		ConfigValid:           s.report.Valid(),
		ConfigIssues:          nonNil(s.report.Issues),
		ConfigWarnings:        nonNil(s.report.Warnings),
	}
}

// Metrics returns the recorder snapshot plus corpus totals. Backend errors
// are logged and leave the affected total at zero.
func (s *StatusService) Metrics(ctx context.Context) domain.ServiceMetrics {
	m := domain.ServiceMetrics{
		MetricsSnapshot: s.cfg.Recorder.Snapshot(),
		EmbeddingModel:  s.cfg.Embedder.ModelName(),
		LLMModel:        s.cfg.LLM.ModelName(),
		VectorStore:     s.cfg.Store.Name(),
	}
	degraded, _ := degradedBackend(s.cfg.LLM)
	m.LLMHealthy = !degraded

	if n, err := s.cfg.Store.Count(ctx); err != nil {
		logger.Warn("status: counting chunks: %v", err)
	} else {
		m.TotalChunks = n
	}

	if s.cfg.Registry != nil {
		if n, err := s.cfg.Registry.Count(ctx); err != nil {
			logger.Warn("status: counting documents: %v", err)
		} else {
			m.TotalDocs = n
		}
	}

	return m
}

// degradedBackend reports the fallback state of backends that track one.
func degradedBackend(backend any) (bool, string) {
	if r, ok := backend.(driven.DegradationReporter); ok {
		return r.Degraded()
	}
	return false, ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
