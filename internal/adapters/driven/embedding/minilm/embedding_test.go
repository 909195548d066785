package minilm

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

func TestEmbedBatch_FitsRunnerOutput(t *testing.T) {
	run := func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{3, 4, 12}
		}
		return out, nil
	}
	svc := newWithRunner("test-model", 2, run, nil)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDelta(t, 0.6, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[0][1], 1e-6)
	assert.Equal(t, "test-model", svc.ModelName())
	assert.Equal(t, 2, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestEmbedBatch_RunnerError(t *testing.T) {
	svc := newWithRunner("m", 4, func([]string) ([][]float32, error) {
		return nil, errors.New("onnx failure")
	}, nil)

	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newWithRunner("m", 4, func([]string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}, nil)

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestClose_DestroysSession(t *testing.T) {
	destroyed := false
	svc := newWithRunner("m", 4, nil, func() error {
		destroyed = true
		return nil
	})
	require.NoError(t, svc.Close())
	assert.True(t, destroyed)
}

func TestNewEmbeddingService_RealModel(t *testing.T) {
	if testing.Short() || os.Getenv("POLICYHELPER_MINILM_TEST") == "" {
		t.Skip("set POLICYHELPER_MINILM_TEST=1 to run (requires model download)")
	}

	svc, err := NewEmbeddingService(Config{ModelDir: t.TempDir()})
	require.NoError(t, err)
	defer svc.Close()

	vec, err := svc.Embed(context.Background(), "This is a test sentence.")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
	assert.InDelta(t, 1.0, vecmath.Norm(vec), 1e-4)
}
