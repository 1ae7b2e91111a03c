package similarity

import (
	"github.com/viterin/vek"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Func is a similarity source that evaluates a pairwise metric over species
// feature vectors on demand, one matrix row at a time. The full S×S matrix
// is never materialized, so memory stays linear in S.
type Func struct {
	fn       MetricFunc
	features *mat.Dense
	species  []string
	workers  int
}

// NewFunc creates a similarity source from a metric and an S×D feature
// matrix whose rows follow the species ordering. The feature matrix is
// retained without copying. Panics with mat.ErrShape if the row count does
// not match the ordering.
//
// WithWorkers(n) fans independent row chunks out to n goroutines; results
// are identical to the sequential computation.
func NewFunc(fn MetricFunc, features *mat.Dense, species []string, opts ...Option) *Func {
	rows, _ := features.Dims()
	if rows != len(species) {
		panic(mat.ErrShape)
	}

	o := applyOptions(opts...)
	return &Func{
		fn:       fn,
		features: features,
		species:  species,
		workers:  o.workers,
	}
}

// Species returns the canonical species ordering.
func (s *Func) Species() []string {
	return s.species
}

// WeightedSimilarities computes out[i][j] = Σ_k fn(f_i, f_k) · weights[k][j]
// row by row.
func (s *Func) WeightedSimilarities(weights *mat.Dense) (*mat.Dense, error) {
	if err := checkWeights(weights, len(s.species)); err != nil {
		return nil, err
	}

	n := len(s.species)
	_, cols := weights.Dims()
	wt := transposed(weights)
	out := mat.NewDense(n, cols, nil)

	if s.workers <= 1 {
		s.computeRows(0, n, wt, out)
		return out, nil
	}

	// Chunks write disjoint row ranges of out, joined before use.
	var g errgroup.Group
	g.SetLimit(s.workers)

	chunk := (n + s.workers - 1) / s.workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			s.computeRows(start, end, wt, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Func) computeRows(start, end int, wt, out *mat.Dense) {
	n := len(s.species)
	cols, _ := wt.Dims()

	simRow := make([]float64, n)
	for i := start; i < end; i++ {
		fi := s.features.RawRowView(i)
		for k := 0; k < n; k++ {
			simRow[k] = s.fn(fi, s.features.RawRowView(k))
		}

		outRow := out.RawRowView(i)
		for j := 0; j < cols; j++ {
			outRow[j] = vek.Dot(simRow, wt.RawRowView(j))
		}
	}
}
