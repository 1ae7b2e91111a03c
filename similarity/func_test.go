package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"Orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"Parallel", []float64{1, 1}, []float64{2, 2}, 1},
		{"Opposite", []float64{1, 0}, []float64{-1, 0}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEuclidean(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Identical", []float64{1, 2}, []float64{1, 2}, 1},
		{"Distance5", []float64{0, 0}, []float64{3, 4}, 1.0 / 6.0},
		{"Distance1", []float64{0}, []float64{1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Euclidean(tt.a, tt.b), 1e-9)
		})
	}
}

// materialize evaluates fn over all pairs so Func can be checked against
// the in-memory source.
func materialize(fn MetricFunc, features *mat.Dense) *mat.Dense {
	n, _ := features.Dims()
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, fn(features.RawRowView(i), features.RawRowView(j)))
		}
	}
	return m
}

func testFeatures(n, d int) *mat.Dense {
	f := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			f.Set(i, j, float64((i+1)*(j+2))/float64(n+d)+float64(j)*0.1)
		}
	}
	return f
}

func TestFunc_MatchesMaterialized(t *testing.T) {
	const n, d, c = 7, 4, 3
	features := testFeatures(n, d)
	species := testSpecies(n)
	weights := testWeights(n, c)

	for _, metric := range []struct {
		name string
		fn   MetricFunc
	}{
		{"cosine", Cosine},
		{"euclidean", Euclidean},
	} {
		t.Run(metric.name, func(t *testing.T) {
			want, err := NewMatrix(materialize(metric.fn, features), species).WeightedSimilarities(weights)
			require.NoError(t, err)

			s := NewFunc(metric.fn, features, species)
			got, err := s.WeightedSimilarities(weights)
			require.NoError(t, err)

			assert.True(t, mat.EqualApprox(want, got, 1e-9))
		})
	}
}

func TestFunc_WorkersAgree(t *testing.T) {
	const n, d, c = 11, 3, 2
	features := testFeatures(n, d)
	species := testSpecies(n)
	weights := testWeights(n, c)

	sequential, err := NewFunc(Cosine, features, species).WeightedSimilarities(weights)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 32} {
		parallel, err := NewFunc(Cosine, features, species, WithWorkers(workers)).WeightedSimilarities(weights)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(sequential, parallel, 0), "workers=%d", workers)
	}
}

func TestFunc_CustomMetric(t *testing.T) {
	const n = 3
	features := testFeatures(n, 2)
	species := testSpecies(n)
	weights := testWeights(n, 2)

	// A constant metric turns the weighted sums into column-sum broadcasts.
	constant := func(a, b []float64) float64 { return 1 }

	s := NewFunc(constant, features, species)
	got, err := s.WeightedSimilarities(weights)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		colSum := 0.0
		for i := 0; i < n; i++ {
			colSum += weights.At(i, j)
		}
		for i := 0; i < n; i++ {
			assert.InDelta(t, colSum, got.At(i, j), 1e-12)
		}
	}
}

func TestNewFunc_ShapePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewFunc(Cosine, testFeatures(3, 2), testSpecies(4))
	})
}

func TestFunc_DimensionMismatch(t *testing.T) {
	s := NewFunc(Cosine, testFeatures(3, 2), testSpecies(3))
	_, err := s.WeightedSimilarities(mat.NewDense(5, 1, nil))

	var dim *ErrDimensionMismatch
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 3, dim.Expected)
	assert.Equal(t, 5, dim.Actual)
}
