// Package minilm runs sentence-transformers/all-MiniLM-L6-v2 in process via hugot.
package minilm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel    = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultModelDir = "./models"
	onnxFilePath    = "onnx/model.onnx"
	pipelineName    = "policyhelper-embedder"
)

// Config holds configuration for the in-process embedder.
type Config struct {
	// Model is the Hugging Face model name (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir caches downloaded models (default: ./models).
	ModelDir string

	// Dimensions is the stored vector length (default: 384).
	Dimensions int
}

// EmbeddingService generates embeddings with an ONNX sentence transformer.
type EmbeddingService struct {
	model      string
	dimensions int

	// hugot pipelines are not safe for concurrent RunPipeline calls.
	mu      sync.Mutex
	run     func(texts []string) ([][]float32, error)
	destroy func() error
}

// NewEmbeddingService downloads the model if needed and starts a pure Go session.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDim
	}

	modelPath, err := prepareModel(cfg.Model, cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: minilm: %w", domain.ErrEmbeddingUnavailable, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("%w: minilm: failed to create hugot session: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      pipelineName,
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("%w: minilm: failed to create pipeline: %w (cleanup error: %v)",
				domain.ErrEmbeddingUnavailable, err, destroyErr)
		}
		return nil, fmt.Errorf("%w: minilm: failed to create pipeline: %w", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Info("minilm: loaded %s from %s", cfg.Model, modelPath)

	run := func(texts []string) ([][]float32, error) {
		result, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	}
	return newWithRunner(cfg.Model, cfg.Dimensions, run, session.Destroy), nil
}

func newWithRunner(model string, dims int, run func([]string) ([][]float32, error), destroy func() error) *EmbeddingService {
	return &EmbeddingService{
		model:      model,
		dimensions: dims,
		run:        run,
		destroy:    destroy,
	}
}

// prepareModel downloads the model if it doesn't exist and returns the model path.
func prepareModel(model, dir string) (string, error) {
	modelPath := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat model: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	logger.Info("minilm: downloading %s to %s", model, dir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFilePath
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one pipeline run.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	raw, err := s.run(texts)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: minilm: failed to generate embedding: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: minilm: got %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(raw), len(texts))
	}

	out := make([][]float32, len(raw))
	for i, v := range raw {
		out[i] = vecmath.Fit(v, s.dimensions)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping runs a one-word inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	if s.destroy == nil {
		return nil
	}
	return s.destroy()
}
