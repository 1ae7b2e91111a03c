package similarity

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is an in-memory similarity source. It is the fastest variant and
// the reference the streamed sources are tested against.
type Matrix struct {
	m       *mat.Dense
	species []string
}

// NewMatrix creates a similarity source over an S×S matrix whose rows and
// columns follow the given species ordering. The matrix is retained without
// copying. Panics with mat.ErrShape if the matrix is not square or the
// ordering length does not match.
func NewMatrix(m *mat.Dense, species []string) *Matrix {
	r, c := m.Dims()
	if r != c || r != len(species) {
		panic(mat.ErrShape)
	}
	return &Matrix{m: m, species: species}
}

// Species returns the canonical species ordering.
func (s *Matrix) Species() []string {
	return s.species
}

// WeightedSimilarities multiplies the similarity matrix into weights.
func (s *Matrix) WeightedSimilarities(weights *mat.Dense) (*mat.Dense, error) {
	if err := checkWeights(weights, len(s.species)); err != nil {
		return nil, err
	}

	_, cols := weights.Dims()
	out := mat.NewDense(len(s.species), cols, nil)
	out.Mul(s.m, weights)
	return out, nil
}
