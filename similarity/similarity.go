// Package similarity provides species similarity sources for
// similarity-sensitive diversity measures.
//
// Every source exposes the same capability: a canonical species ordering
// fixed at construction, and the weighted-similarity operation
//
//	out[i][j] = Σ_k sim(i, k) · weights[k][j]
//
// i.e. the similarity matrix multiplied into a weights matrix. The sources
// differ in where the matrix lives:
//
//   - NewMatrix: in memory, one dense multiplication
//   - OpenFile: delimited text file streamed in row chunks, bounding peak
//     memory regardless of species count (plain, .gz, .zst or .lz4)
//   - OpenMemmap: row-major float64 binary matrix through a read-only
//     file mapping, zero-copy
//   - NewFunc: pairwise feature similarity computed on demand, never
//     materializing the full matrix
//
// Results are identical across sources for the same underlying matrix.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Similarity is the capability consumed by similarity-sensitive diversity
// measures.
type Similarity interface {
	// Species returns the canonical species ordering. Abundance rows must
	// be aligned to it.
	Species() []string
	// WeightedSimilarities multiplies the similarity matrix into weights.
	// The result has the same shape as weights.
	WeightedSimilarities(weights *mat.Dense) (*mat.Dense, error)
}

// ErrDimensionMismatch indicates a weights matrix whose row count does not
// match the species ordering.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("similarity: weights have %d rows, expected %d species", e.Actual, e.Expected)
}

// checkWeights validates the weights shape against the species count.
func checkWeights(weights *mat.Dense, species int) error {
	rows, _ := weights.Dims()
	if rows != species {
		return &ErrDimensionMismatch{Expected: species, Actual: rows}
	}
	return nil
}

// transposed returns a row-contiguous copy of the transpose of m, so that
// column dot products read sequential memory.
func transposed(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	t := mat.NewDense(c, r, nil)
	t.Copy(m.T())
	return t
}
