// Package vectormath provides the similarity scoring shared by the
// vector index adapters: dense cosine, sparse cosine and the
// alpha-weighted hybrid fusion.
package vectormath

import (
	"math"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// DefaultAlpha is the dense weight used by hybrid fusion when the
// configuration does not say otherwise.
const DefaultAlpha = 0.7

// Cosine returns the cosine similarity of two dense vectors, in [-1, 1].
// Mismatched lengths or a zero vector score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SparseCosine returns the cosine similarity of two sparse vectors,
// in [0, 1] for non-negative weights. Empty vectors score 0.
func SparseCosine(a, b domain.SparseVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += float64(av) * float64(bv)
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (norm(a) * norm(b))
}

// Fuse combines dense and sparse similarity with an alpha weight on the
// dense side: alpha*dense + (1-alpha)*sparse. The result stays on a
// similarity-like scale so a caller's cutoff remains meaningful.
func Fuse(alpha, dense, sparse float64) float64 {
	return alpha*dense + (1-alpha)*sparse
}

func norm(v domain.SparseVector) float64 {
	var n float64
	for _, w := range v {
		n += float64(w) * float64(w)
	}
	return math.Sqrt(n)
}
