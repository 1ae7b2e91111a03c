// Package powermean provides the weighted power mean primitive behind all
// diversity measures.
//
// The power mean of items x with weights w and exponent m is
// (Σ w_i · x_i^m)^(1/m). Entries with zero weight are excluded from every
// power operation, so absent species never poison a result with
// 0^negative-exponent. Two limits get analytic handling: exponents within
// tolerance of zero use the weighted geometric mean, and exponents below
// -100 use the masked minimum.
package powermean

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// zeroTolerance bounds the exponent band treated as the order→0 limit.
const zeroTolerance = 1e-9

// minExponent is the cutoff below which the mean collapses to the masked minimum.
const minExponent = -100

const badLength = "powermean: length of weights and items do not match"

// Weighted computes the power mean of items with exponent order, weighted
// by weights. Entries whose weight is zero are excluded from the mean.
// Panics if the slices differ in length.
func Weighted(order float64, weights, items []float64) float64 {
	if len(weights) != len(items) {
		panic(badLength)
	}

	switch {
	case math.Abs(order) <= zeroTolerance:
		return geometric(weights, items)
	case order < minExponent:
		return minimum(weights, items)
	default:
		var sum float64
		for i, w := range weights {
			if w == 0 {
				continue
			}
			sum += w * math.Pow(items[i], order)
		}
		return math.Pow(sum, 1/order)
	}
}

// geometric is the order→0 limit: the masked product of items^weights.
func geometric(weights, items []float64) float64 {
	prod := 1.0
	for i, w := range weights {
		if w == 0 {
			continue
		}
		prod *= math.Pow(items[i], w)
	}
	return prod
}

// minimum is the order→−∞ limit. An all-zero weight column yields +Inf.
func minimum(weights, items []float64) float64 {
	m := math.Inf(1)
	for i, w := range weights {
		if w == 0 {
			continue
		}
		if items[i] < m {
			m = items[i]
		}
	}
	return m
}

// WeightedColumns reduces along rows (axis 0, species), producing one power
// mean per column. weights must be S×C. items may be S×C, or S×1 to share a
// single column across all C reductions. Panics on any other shape.
func WeightedColumns(order float64, weights, items *mat.Dense) []float64 {
	wr, wc := weights.Dims()
	ir, ic := items.Dims()
	if ir != wr || (ic != wc && ic != 1) {
		panic(mat.ErrShape)
	}

	wcol := make([]float64, wr)
	icol := make([]float64, ir)
	if ic == 1 {
		mat.Col(icol, 0, items)
	}

	out := make([]float64, wc)
	for j := 0; j < wc; j++ {
		mat.Col(wcol, j, weights)
		if ic != 1 {
			mat.Col(icol, j, items)
		}
		out[j] = Weighted(order, wcol, icol)
	}
	return out
}
