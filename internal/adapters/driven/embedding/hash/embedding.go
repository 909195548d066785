// Package hash provides a deterministic, offline embedding service.
//
// Text is tokenised into lower-cased runs of letters and digits. Each token
// and each of its character trigrams is hashed with FNV-1a into one of D
// buckets, with a second hash bit choosing the sign. Token weights are
// 1+log(tf); trigrams carry a lower weight so morphological variants
// ("refund", "refunds", "refunded") still share mass. The result is
// L2-normalised.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Feature weights.
const (
	TokenWeight   = 1.0
	TrigramWeight = 0.35
)

// EmbeddingService hashes text into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
	model      string
}

// NewEmbeddingService creates a hashing embedder producing vectors of length dims.
// A non-positive dims selects domain.DefaultEmbeddingDim.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = domain.DefaultEmbeddingDim
	}
	return &EmbeddingService{
		dimensions: dims,
		model:      "local-" + strconv.Itoa(dims),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.embed(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.embed(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "local-<D>".
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) embed(text string) []float32 {
	vec := make([]float32, s.dimensions)

	tf := make(map[string]int)
	for _, tok := range Tokenize(text) {
		tf[tok]++
	}
	// Fixed accumulation order keeps float sums bit-identical across runs.
	tokens := make([]string, 0, len(tf))
	for tok := range tf {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for _, tok := range tokens {
		n := tf[tok]
		w := TokenWeight * (1 + math.Log(float64(n)))
		s.add(vec, "t:"+tok, w)

		padded := []rune("^" + tok + "$")
		for i := 0; i+3 <= len(padded); i++ {
			s.add(vec, "g:"+string(padded[i:i+3]), TrigramWeight*w)
		}
	}

	return vecmath.Normalize(vec)
}

func (s *EmbeddingService) add(vec []float32, feature string, w float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		w = -w
	}
	vec[idx] += float32(w)
}

// Tokenize splits text into lower-cased runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
