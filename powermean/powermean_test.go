package powermean

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWeighted_GeneralOrders(t *testing.T) {
	tests := []struct {
		name     string
		order    float64
		weights  []float64
		items    []float64
		expected float64
	}{
		// (0.5*2^1 + 0.5*4^1)^(1/1) = 3
		{"ArithmeticMean", 1, []float64{0.5, 0.5}, []float64{2, 4}, 3},
		// (0.5*2^-1 + 0.5*4^-1)^(-1) = 1/(0.25+0.125) = 8/3
		{"HarmonicMean", -1, []float64{0.5, 0.5}, []float64{2, 4}, 8.0 / 3.0},
		// (0.5*4 + 0.5*16)^(1/2) = sqrt(10)
		{"Quadratic", 2, []float64{0.5, 0.5}, []float64{2, 4}, math.Sqrt(10)},
		// Uneven weights: (0.25*2 + 0.75*4) = 3.5
		{"UnevenWeights", 1, []float64{0.25, 0.75}, []float64{2, 4}, 3.5},
		// Weights need not sum to 1; no renormalization happens.
		{"UnnormalizedWeights", 1, []float64{1, 1}, []float64{2, 4}, 6},
		{"SingleItem", 3, []float64{1}, []float64{5}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Weighted(tt.order, tt.weights, tt.items)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestWeighted_GeometricLimit(t *testing.T) {
	tests := []struct {
		name     string
		order    float64
		weights  []float64
		items    []float64
		expected float64
	}{
		// 2^0.5 * 8^0.5 = 4
		{"EqualWeights", 0, []float64{0.5, 0.5}, []float64{2, 8}, 4},
		// 4^0.25 * 2^0.75
		{"UnevenWeights", 0, []float64{0.25, 0.75}, []float64{4, 2}, math.Pow(4, 0.25) * math.Pow(2, 0.75)},
		// Orders inside the tolerance band hit the same branch.
		{"TinyPositiveOrder", 1e-10, []float64{0.5, 0.5}, []float64{2, 8}, 4},
		{"TinyNegativeOrder", -1e-10, []float64{0.5, 0.5}, []float64{2, 8}, 4},
		{"ZeroItem", 0, []float64{0.5, 0.5}, []float64{0, 8}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Weighted(tt.order, tt.weights, tt.items)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestWeighted_MinimumLimit(t *testing.T) {
	tests := []struct {
		name     string
		weights  []float64
		items    []float64
		expected float64
	}{
		{"Simple", []float64{0.5, 0.25, 0.25}, []float64{3, 1, 2}, 1},
		{"MaskedMin", []float64{0.5, 0, 0.5}, []float64{3, 1, 2}, 2},
		{"Single", []float64{1}, []float64{7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Weighted(-101, tt.weights, tt.items)
			assert.InDelta(t, tt.expected, got, 1e-12)

			// Any order below the cutoff behaves identically.
			got = Weighted(-1e6, tt.weights, tt.items)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}

	t.Run("AllMasked", func(t *testing.T) {
		got := Weighted(-101, []float64{0, 0}, []float64{3, 1})
		assert.True(t, math.IsInf(got, 1))
	})
}

func TestWeighted_Masking(t *testing.T) {
	// A zero item with a negative order produces +Inf unless its zero
	// weight masks it out.
	t.Run("ZeroItemMaskedUnderNegativeOrder", func(t *testing.T) {
		got := Weighted(-1, []float64{0, 0.5, 0.5}, []float64{0, 2, 4})
		want := math.Pow(0.5/2+0.5/4, -1)
		assert.InDelta(t, want, got, 1e-12)
		assert.False(t, math.IsInf(got, 0))
		assert.False(t, math.IsNaN(got))
	})

	t.Run("ZeroItemMaskedUnderGeometric", func(t *testing.T) {
		got := Weighted(0, []float64{0, 0.5, 0.5}, []float64{0, 2, 8})
		assert.InDelta(t, 4, got, 1e-12)
	})

	// Masked entries never contribute to the sum even at benign orders.
	t.Run("MaskedEntryIgnored", func(t *testing.T) {
		masked := Weighted(1, []float64{0, 0.5, 0.5}, []float64{1e9, 2, 4})
		plain := Weighted(1, []float64{0.5, 0.5}, []float64{2, 4})
		assert.InDelta(t, plain, masked, 1e-12)
	})
}

func TestWeighted_LengthMismatch(t *testing.T) {
	assert.PanicsWithValue(t, badLength, func() {
		Weighted(1, []float64{1, 2}, []float64{1})
	})
}

// naive recomputes the mean with no branch sharing, as an independent check.
func naive(order float64, weights, items []float64) float64 {
	if math.Abs(order) <= 1e-9 {
		p := 1.0
		for i := range weights {
			if weights[i] != 0 {
				p *= math.Pow(items[i], weights[i])
			}
		}
		return p
	}
	if order < -100 {
		m := math.Inf(1)
		for i := range weights {
			if weights[i] != 0 {
				m = math.Min(m, items[i])
			}
		}
		return m
	}
	s := 0.0
	for i := range weights {
		if weights[i] != 0 {
			s += weights[i] * math.Pow(items[i], order)
		}
	}
	return math.Pow(s, 1/order)
}

func TestWeightedColumns(t *testing.T) {
	weights := mat.NewDense(3, 2, []float64{
		0.2, 0.1,
		0.3, 0.0,
		0.5, 0.9,
	})
	items := mat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})

	for _, order := range []float64{-101, -2, -1, 0, 0.5, 1, 2} {
		got := WeightedColumns(order, weights, items)
		require.Len(t, got, 2)

		for j := 0; j < 2; j++ {
			w := mat.Col(nil, j, weights)
			x := mat.Col(nil, j, items)
			assert.InDelta(t, naive(order, w, x), got[j], 1e-12, "order=%v col=%d", order, j)
		}
	}
}

func TestWeightedColumns_BroadcastsSingleColumn(t *testing.T) {
	weights := mat.NewDense(3, 2, []float64{
		0.2, 0.1,
		0.3, 0.0,
		0.5, 0.9,
	})
	shared := mat.NewDense(3, 1, []float64{2, 4, 8})

	got := WeightedColumns(1, weights, shared)
	require.Len(t, got, 2)

	x := []float64{2, 4, 8}
	for j := 0; j < 2; j++ {
		w := mat.Col(nil, j, weights)
		assert.InDelta(t, naive(1, w, x), got[j], 1e-12)
	}
}

func TestWeightedColumns_ShapeMismatch(t *testing.T) {
	weights := mat.NewDense(3, 2, nil)

	assert.Panics(t, func() {
		WeightedColumns(1, weights, mat.NewDense(2, 2, nil))
	})
	assert.Panics(t, func() {
		WeightedColumns(1, weights, mat.NewDense(3, 3, nil))
	})
}
