// Package breaker wraps an LLMService with a per-call timeout and a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure LLMService implements the interfaces.
var (
	_ driven.LLMService          = (*LLMService)(nil)
	_ driven.PromptStoreAware    = (*LLMService)(nil)
	_ driven.DegradationReporter = (*LLMService)(nil)
)

// Default breaker settings.
const (
	DefaultFailureThreshold = 3
	DefaultOpenTimeout      = 30 * time.Second
)

// Config holds breaker settings.
type Config struct {
	// CallTimeout bounds every Generate call (default: 20s).
	CallTimeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

// LLMService decorates another LLMService.
type LLMService struct {
	inner   driven.LLMService
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// New wraps inner.
func New(inner driven.LLMService, cfg Config) *LLMService {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = domain.DefaultLLMTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + inner.Provider().String(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &LLMService{inner: inner, cb: cb, timeout: cfg.CallTimeout}
}

// Generate calls the wrapped service within the call timeout.
// An open breaker fails fast with domain.ErrLLMUnavailable.
func (s *LLMService) Generate(ctx context.Context, query string, chunks []domain.Chunk) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Generate(ctx, query, chunks)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s: circuit %s", domain.ErrLLMUnavailable, s.inner.Provider(), err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrLLMTimeout) {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrLLMTimeout, s.inner.Provider(), err)
		}
		return "", err
	}
	answer, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: unexpected result type %T", domain.ErrLLMMalformedResponse, s.inner.Provider(), res)
	}
	return answer, nil
}

// State returns the breaker state.
func (s *LLMService) State() gobreaker.State {
	return s.cb.State()
}

// Degraded reports true while the breaker is not closed. Calls made in
// that state fail fast and are answered by the fallback.
func (s *LLMService) Degraded() (bool, string) {
	state := s.State()
	if state == gobreaker.StateClosed {
		return false, ""
	}
	return true, fmt.Sprintf("llm: %s circuit %s after repeated failures", s.inner.Provider(), state)
}

// Provider returns the wrapped provider.
func (s *LLMService) Provider() domain.LLMProvider {
	return s.inner.Provider()
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// SetPromptStore forwards to the wrapped service when it supports prompts.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	if aware, ok := s.inner.(driven.PromptStoreAware); ok {
		aware.SetPromptStore(store)
	}
}

// Ping checks the wrapped service directly, bypassing the breaker.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}
