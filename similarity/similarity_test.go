package similarity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// testSimilarity builds a deterministic symmetric matrix with unit diagonal:
// sim(i, j) = 1 / (1 + |i-j|).
func testSimilarity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := i - j
			if d < 0 {
				d = -d
			}
			m.Set(i, j, 1/float64(1+d))
		}
	}
	return m
}

func testWeights(n, c int) *mat.Dense {
	w := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			w.Set(i, j, float64(i+1)/float64(n*(j+2)))
		}
	}
	return w
}

func testSpecies(n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = fmt.Sprintf("sp%d", i+1)
	}
	return s
}

func TestMatrix_WeightedSimilarities(t *testing.T) {
	// 2 species, 2 subcommunities, verified by hand:
	// sim = [1 0.5; 0.5 1], weights = [0.25 0.125; 0.25 0.375]
	sim := mat.NewDense(2, 2, []float64{
		1, 0.5,
		0.5, 1,
	})
	weights := mat.NewDense(2, 2, []float64{
		0.25, 0.125,
		0.25, 0.375,
	})

	s := NewMatrix(sim, []string{"sp1", "sp2"})
	got, err := s.WeightedSimilarities(weights)
	require.NoError(t, err)

	assert.InDelta(t, 0.375, got.At(0, 0), 1e-12)  // 0.25 + 0.5*0.25
	assert.InDelta(t, 0.3125, got.At(0, 1), 1e-12) // 0.125 + 0.5*0.375
	assert.InDelta(t, 0.375, got.At(1, 0), 1e-12)
	assert.InDelta(t, 0.4375, got.At(1, 1), 1e-12)
}

func TestMatrix_IdentityIsNoop(t *testing.T) {
	n, c := 4, 3
	identity := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		identity.Set(i, i, 1)
	}
	weights := testWeights(n, c)

	s := NewMatrix(identity, testSpecies(n))
	got, err := s.WeightedSimilarities(weights)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(weights, got, 1e-12))
}

func TestMatrix_DimensionMismatch(t *testing.T) {
	s := NewMatrix(testSimilarity(3), testSpecies(3))

	_, err := s.WeightedSimilarities(mat.NewDense(4, 2, nil))
	require.Error(t, err)

	var dim *ErrDimensionMismatch
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 3, dim.Expected)
	assert.Equal(t, 4, dim.Actual)
	assert.Contains(t, err.Error(), "4 rows")
}

func TestNewMatrix_ShapePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewMatrix(mat.NewDense(2, 3, nil), testSpecies(2))
	})
	assert.Panics(t, func() {
		NewMatrix(mat.NewDense(3, 3, nil), testSpecies(2))
	})
}

func TestTransposed(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	got := transposed(m)

	r, c := got.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 4}, got.RawRowView(0))
	assert.Equal(t, []float64{3, 6}, got.RawRowView(2))
}
