package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// Counts returns a random abundance table with species in rows and
// subcommunities in columns. Roughly a quarter of the cells are zero, and
// every subcommunity keeps at least one nonzero count.
func (r *RNG) Counts(species, subcommunities int) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := mat.NewDense(species, subcommunities, nil)
	for c := range subcommunities {
		nonzero := false
		for i := range species {
			if r.rand.Float64() < 0.25 {
				continue
			}
			out.Set(i, c, 1+r.rand.Float64()*9)
			nonzero = true
		}
		if !nonzero {
			out.Set(r.rand.Intn(species), c, 1+r.rand.Float64()*9)
		}
	}

	return out
}

// ZipfCounts returns an abundance table whose species follow a power-law
// rank distribution, the shape real species abundance data tends to have.
// Each subcommunity receives 20 draws per species, assigned by Zipf's law
// with skew s over a per-subcommunity rank permutation.
func (r *RNG) ZipfCounts(species, subcommunities int, s float64) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := mat.NewDense(species, subcommunities, nil)
	for c := range subcommunities {
		ranks := r.rand.Perm(species)
		for range species * 20 {
			i := ranks[r.zipfLocked(species, s)]
			out.Set(i, c, out.At(i, c)+1)
		}
	}

	return out
}

// zipfLocked samples a Zipf-distributed rank in [0, n) by inverse transform
// (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Similarity returns a random symmetric similarity matrix with unit diagonal
// and off-diagonal entries in [0, 1).
func (r *RNG) Similarity(n int) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := mat.NewDense(n, n, nil)
	for i := range n {
		out.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			v := r.rand.Float64()
			out.Set(i, j, v)
			out.Set(j, i, v)
		}
	}

	return out
}

// Features returns random feature vectors, one species per row. Entries are
// offset from zero so metrics over the rows stay well-defined.
func (r *RNG) Features(species, dim int) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, species*dim)
	for i := range data {
		data[i] = 0.1 + r.rand.Float64()
	}

	return mat.NewDense(species, dim, data)
}

// SpeciesNames returns n generated species labels.
func SpeciesNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("sp%d", i+1)
	}
	return out
}

// SubcommunityNames returns n generated subcommunity labels.
func SubcommunityNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("sub%d", i+1)
	}
	return out
}

// NaivePowerMean computes the weighted power mean of order over items with
// straightforward loops, as ground truth for the optimized implementation.
// Items with zero weight are skipped.
func NaivePowerMean(order float64, weights, items []float64) float64 {
	if math.Abs(order) <= 1e-9 {
		sum := 0.0
		for i, w := range weights {
			if w != 0 {
				sum += w * math.Log(items[i])
			}
		}
		return math.Exp(sum)
	}

	if order < -100 {
		m := math.Inf(1)
		for i, w := range weights {
			if w != 0 && items[i] < m {
				m = items[i]
			}
		}
		return m
	}

	sum := 0.0
	for i, w := range weights {
		if w != 0 {
			sum += w * math.Pow(items[i], order)
		}
	}
	return math.Pow(sum, 1/order)
}

// NaiveDiversity computes a diversity measure with straightforward loops, as
// ground truth for Metacommunity. counts has species in rows and
// subcommunities in columns; z is a species similarity matrix, or nil for
// the frequency-sensitive measure. It returns the per-subcommunity values
// followed by the metacommunity value.
func NaiveDiversity(counts, z *mat.Dense, viewpoint float64, measure string) ([]float64, float64) {
	rows, cols := counts.Dims()

	total := 0.0
	for i := range rows {
		for c := range cols {
			total += counts.At(i, c)
		}
	}

	sub := make([][]float64, rows)
	meta := make([]float64, rows)
	consts := make([]float64, cols)
	norm := make([][]float64, rows)
	for i := range rows {
		sub[i] = make([]float64, cols)
		norm[i] = make([]float64, cols)
		for c := range cols {
			v := counts.At(i, c) / total
			sub[i][c] = v
			meta[i] += v
			consts[c] += v
		}
	}
	for i := range rows {
		for c := range cols {
			norm[i][c] = sub[i][c] / consts[c]
		}
	}

	// Similarity weighting turns abundances into ordinariness values.
	zsub, zmeta, znorm := sub, meta, norm
	if z != nil {
		zsub = weighted2(z, sub)
		zmeta = weighted1(z, meta)
		znorm = weighted2(z, norm)
	}

	values := make([]float64, cols)
	for c := range cols {
		weights := make([]float64, rows)
		items := make([]float64, rows)
		for i := range rows {
			weights[i] = norm[i][c]

			num := 1.0
			switch measure {
			case "rho", "beta", "normalized_rho", "normalized_beta":
				num = zmeta[i]
			}

			var den float64
			switch measure {
			case "gamma":
				den = zmeta[i]
			case "normalized_alpha", "normalized_rho", "normalized_beta":
				den = znorm[i][c]
			default:
				den = zsub[i][c]
			}

			if den != 0 {
				items[i] = num / den
			}
		}

		values[c] = NaivePowerMean(1-viewpoint, weights, items)
		if measure == "beta" || measure == "normalized_beta" {
			values[c] = 1 / values[c]
		}
	}

	return values, NaivePowerMean(1-viewpoint, consts, values)
}

func weighted2(z *mat.Dense, m [][]float64) [][]float64 {
	rows := len(m)
	cols := len(m[0])

	out := make([][]float64, rows)
	for i := range rows {
		out[i] = make([]float64, cols)
		for c := range cols {
			sum := 0.0
			for j := range rows {
				sum += z.At(i, j) * m[j][c]
			}
			out[i][c] = sum
		}
	}
	return out
}

func weighted1(z *mat.Dense, v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		sum := 0.0
		for j := range v {
			sum += z.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out
}
