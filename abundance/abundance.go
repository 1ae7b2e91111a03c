// Package abundance turns species counts into the relative abundance
// tensors that diversity measures consume.
//
// An Abundance is built either from a dense counts matrix (species rows,
// subcommunity columns) via New, or from a long-form record table via
// FromRecords. All derived tensors are memoized: each is computed once on
// first access and reused for the lifetime of the object.
//
// # Derived Tensors
//
//   - SubcommunityAbundance: counts normalized by the metacommunity total
//   - MetacommunityAbundance: species proportions across the whole
//     metacommunity (row sums, S×1)
//   - SubcommunityNormalizingConstants: subcommunity proportions of the
//     total (column sums)
//   - NormalizedSubcommunityAbundance: each subcommunity rescaled to sum
//     to one
//
// # Shared Buffers
//
// With WithBuffers, derived tensors are written into externally owned
// float64 buffers instead of private allocations. Results are identical;
// only the backing storage differs. Buffers are claimed eagerly at
// construction so allocation failure surfaces from New, not from a getter.
package abundance

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNegativeCount is returned when a count is negative.
	ErrNegativeCount = errors.New("abundance: negative count")
	// ErrEmptyCounts is returned when the counts table has no cells.
	ErrEmptyCounts = errors.New("abundance: empty counts")
	// ErrZeroTotal is returned when a subcommunity's counts sum to zero.
	ErrZeroTotal = errors.New("abundance: subcommunity has zero total count")
	// ErrDuplicatePair is returned when a subcommunity-species pair occurs twice.
	ErrDuplicatePair = errors.New("abundance: duplicate subcommunity-species pair")
)

// Abundance holds a validated counts matrix and memoizes the relative
// abundance tensors derived from it.
//
// All getters return internal state. Callers must treat the returned
// matrices and slices as read-only.
type Abundance struct {
	counts         *mat.Dense
	species        []string
	subcommunities []string

	// Externally owned backing storage, nil for private allocations.
	subBuf    []float64
	normBuf   []float64
	metaBuf   []float64
	constsBuf []float64

	subOnce sync.Once
	sub     *mat.Dense

	normOnce sync.Once
	norm     *mat.Dense

	metaOnce sync.Once
	meta     *mat.Dense

	constsOnce sync.Once
	consts     []float64
}

// New creates an Abundance over the given counts matrix. Rows follow the
// species ordering, columns the subcommunity ordering. The matrix is
// retained without copying.
//
// Counts must be non-negative and every subcommunity must have a positive
// total. Ordering lengths that do not match the matrix dimensions panic
// with mat.ErrShape.
func New(counts *mat.Dense, species, subcommunities []string, opts ...Option) (*Abundance, error) {
	if counts == nil || counts.IsEmpty() {
		return nil, ErrEmptyCounts
	}

	rows, cols := counts.Dims()
	if len(species) != rows || len(subcommunities) != cols {
		panic(mat.ErrShape)
	}

	for i := 0; i < rows; i++ {
		for _, v := range counts.RawRowView(i) {
			if v < 0 {
				return nil, fmt.Errorf("%w: species %q", ErrNegativeCount, species[i])
			}
		}
	}

	colTotals := make([]float64, cols)
	for i := 0; i < rows; i++ {
		floats.Add(colTotals, counts.RawRowView(i))
	}
	for j, total := range colTotals {
		if total == 0 {
			return nil, fmt.Errorf("%w: %q", ErrZeroTotal, subcommunities[j])
		}
	}

	o := applyOptions(opts...)

	a := &Abundance{
		counts:         counts,
		species:        species,
		subcommunities: subcommunities,
	}

	if o.buffers != nil {
		var err error
		if a.subBuf, err = o.buffers.AllocFloat64s(rows * cols); err != nil {
			return nil, fmt.Errorf("abundance: alloc subcommunity buffer: %w", err)
		}
		if a.normBuf, err = o.buffers.AllocFloat64s(rows * cols); err != nil {
			return nil, fmt.Errorf("abundance: alloc normalized buffer: %w", err)
		}
		if a.metaBuf, err = o.buffers.AllocFloat64s(rows); err != nil {
			return nil, fmt.Errorf("abundance: alloc metacommunity buffer: %w", err)
		}
		if a.constsBuf, err = o.buffers.AllocFloat64s(cols); err != nil {
			return nil, fmt.Errorf("abundance: alloc normalizing constants buffer: %w", err)
		}
	}

	return a, nil
}

// Species returns the species ordering (row labels).
func (a *Abundance) Species() []string {
	return a.species
}

// Subcommunities returns the subcommunity ordering (column labels).
func (a *Abundance) Subcommunities() []string {
	return a.subcommunities
}

// Dims returns the number of species and subcommunities.
func (a *Abundance) Dims() (species, subcommunities int) {
	return a.counts.Dims()
}

// Counts returns the underlying counts matrix.
func (a *Abundance) Counts() *mat.Dense {
	return a.counts
}

// SubcommunityAbundance returns the S×C matrix of counts normalized by the
// metacommunity total. Its entries sum to 1.
func (a *Abundance) SubcommunityAbundance() *mat.Dense {
	a.subOnce.Do(func() {
		rows, cols := a.counts.Dims()
		total := mat.Sum(a.counts)

		sub := mat.NewDense(rows, cols, a.subBuf)
		sub.Scale(1/total, a.counts)
		a.sub = sub
	})
	return a.sub
}

// MetacommunityAbundance returns the S×1 column of species proportions
// across the whole metacommunity (row sums of SubcommunityAbundance).
func (a *Abundance) MetacommunityAbundance() *mat.Dense {
	a.metaOnce.Do(func() {
		sub := a.SubcommunityAbundance()
		rows, _ := sub.Dims()

		meta := mat.NewDense(rows, 1, a.metaBuf)
		for i := 0; i < rows; i++ {
			meta.Set(i, 0, floats.Sum(sub.RawRowView(i)))
		}
		a.meta = meta
	})
	return a.meta
}

// SubcommunityNormalizingConstants returns the proportion of the
// metacommunity total held by each subcommunity (column sums of
// SubcommunityAbundance). Length C; entries sum to 1.
func (a *Abundance) SubcommunityNormalizingConstants() []float64 {
	a.constsOnce.Do(func() {
		sub := a.SubcommunityAbundance()
		rows, cols := sub.Dims()

		consts := a.constsBuf
		if consts == nil {
			consts = make([]float64, cols)
		}
		for i := 0; i < rows; i++ {
			floats.Add(consts, sub.RawRowView(i))
		}
		a.consts = consts
	})
	return a.consts
}

// NormalizedSubcommunityAbundance returns the S×C matrix in which every
// subcommunity column sums to 1.
func (a *Abundance) NormalizedSubcommunityAbundance() *mat.Dense {
	a.normOnce.Do(func() {
		sub := a.SubcommunityAbundance()
		consts := a.SubcommunityNormalizingConstants()
		rows, cols := sub.Dims()

		norm := mat.NewDense(rows, cols, a.normBuf)
		for i := 0; i < rows; i++ {
			floats.DivTo(norm.RawRowView(i), sub.RawRowView(i), consts)
		}
		a.norm = norm
	})
	return a.norm
}
