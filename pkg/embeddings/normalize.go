// Package embeddings holds vector math shared by the embedding clients.
package embeddings

import (
	"errors"
	"math"
)

// ErrDegenerateVector is returned for vectors that cannot be scaled to unit length:
// all zeros, or containing NaN or Inf (a model that diverged).
var ErrDegenerateVector = errors.New("degenerate embedding vector")

// NormalizeL2 scales vector in place to unit L2 norm so cosine similarity equals the dot product.
// The vector is left untouched when ErrDegenerateVector is returned.
func NormalizeL2(vector []float32) error {
	norm := Norm(vector)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return ErrDegenerateVector
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}

	return nil
}

// Norm returns the L2 norm (Euclidean length) of vector.
func Norm(vector []float32) float64 {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	return math.Sqrt(sumSquares)
}
