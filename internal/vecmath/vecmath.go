// Package vecmath holds the small amount of vector arithmetic shared by
// embedders, vector stores and the retriever.
package vecmath

import "math"

// Normalize scales v in place to unit L2 norm and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return v
}

// Fit truncates or zero-pads v to exactly d components and normalises the result.
// The input slice is never modified.
func Fit(v []float32, d int) []float32 {
	out := make([]float32, d)
	copy(out, v)
	return Normalize(out)
}

// FitFloat64 is Fit for providers that answer with float64 vectors.
func FitFloat64(v []float64, d int) []float32 {
	out := make([]float32, d)
	for i := 0; i < d && i < len(v); i++ {
		out[i] = float32(v[i])
	}
	return Normalize(out)
}

// Dot returns the inner product of a and b over their common length.
// For unit vectors this is the cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}
