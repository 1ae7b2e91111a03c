package diversity

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ecospect/diversity/abundance"
	"github.com/ecospect/diversity/internal/arena"
	"github.com/ecospect/diversity/powermean"
)

// Metacommunity partitions the diversity of a community of communities.
//
// Every measure reduces to the same pipeline: build a ratio of two abundance
// tensors, then take the power mean of order 1-viewpoint down each
// subcommunity column, weighted by the normalized abundances. With a
// similarity source configured the tensors are similarity-weighted first,
// so lookalike species trade diversity for redundancy.
//
// Results are cached per viewpoint and measure. Methods are safe for
// concurrent use; evaluations are serialized internally.
type Metacommunity struct {
	ab     *abundance.Abundance
	source componentSource

	logger  *Logger
	metrics MetricsCollector

	mu        sync.Mutex
	closed    bool
	subCache  map[cacheKey][]float64
	metaCache map[cacheKey]float64

	arena *arena.Arena // owned when WithSharedMemory was used
}

type cacheKey struct {
	viewpoint float64
	measure   Measure
}

// New creates a Metacommunity over the given abundance table.
//
// Without options the metacommunity is frequency-sensitive. A similarity
// source must order exactly the species of the abundance table, otherwise
// New returns an ErrSpeciesMismatch.
func New(ab *abundance.Abundance, optFns ...Option) (*Metacommunity, error) {
	if ab == nil {
		return nil, errors.New("nil abundance")
	}

	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := &Metacommunity{
		ab:        ab,
		logger:    opts.logger,
		metrics:   opts.metricsCollector,
		subCache:  make(map[cacheKey][]float64),
		metaCache: make(map[cacheKey]float64),
	}

	if opts.similarity != nil {
		if err := checkSpecies(ab.Species(), opts.similarity.Species()); err != nil {
			return nil, err
		}
	}

	buffers := opts.buffers
	if opts.sharedMemory && buffers == nil && opts.similarity != nil {
		a, err := arena.New(0)
		if err != nil {
			return nil, fmt.Errorf("shared memory: %w", err)
		}
		m.arena = a
		buffers = a
	}

	switch {
	case opts.similarity == nil:
		m.source = &frequencyComponents{ab: ab}
	case buffers == nil:
		m.source = &similarityComponents{
			ab:      ab,
			sim:     opts.similarity,
			metrics: m.metrics,
			logger:  m.logger,
		}
	default:
		source, err := newSharedComponents(ab, opts.similarity, buffers, m.metrics, m.logger)
		if err != nil {
			if m.arena != nil {
				m.arena.Free()
			}
			return nil, err
		}
		m.source = source
	}

	species, subcommunities := ab.Dims()
	m.logger.Debug("metacommunity ready",
		"species", species,
		"subcommunities", subcommunities,
		"similarity", opts.similarity != nil,
	)

	return m, nil
}

// Species returns the species ordering of the underlying abundance table.
func (m *Metacommunity) Species() []string { return m.ab.Species() }

// Subcommunities returns the subcommunity ordering of the underlying
// abundance table.
func (m *Metacommunity) Subcommunities() []string { return m.ab.Subcommunities() }

// SubcommunityDiversity returns the measure at the given viewpoint for every
// subcommunity, ordered like Subcommunities.
//
// The returned slice is cached and shared with later calls for the same
// viewpoint and measure; callers must not modify it.
func (m *Metacommunity) SubcommunityDiversity(viewpoint float64, measure Measure) ([]float64, error) {
	if err := checkViewpoint(viewpoint); err != nil {
		return nil, err
	}
	if !measure.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	return m.subcommunityDiversity(viewpoint, measure)
}

// MetacommunityDiversity returns the measure at the given viewpoint for the
// metacommunity as a whole: the power mean of the subcommunity values,
// weighted by subcommunity size.
func (m *Metacommunity) MetacommunityDiversity(viewpoint float64, measure Measure) (float64, error) {
	if err := checkViewpoint(viewpoint); err != nil {
		return 0, err
	}
	if !measure.valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	key := cacheKey{viewpoint: viewpoint, measure: measure}
	if v, ok := m.metaCache[key]; ok {
		m.metrics.RecordCacheHit(measure)
		return v, nil
	}

	start := time.Now()
	sub, err := m.subcommunityDiversity(viewpoint, measure)

	var v float64
	if err == nil {
		v = powermean.Weighted(1-viewpoint, m.ab.SubcommunityNormalizingConstants(), sub)
	}

	m.metrics.RecordMetacommunityDiversity(measure, time.Since(start), err)
	m.logger.LogMetacommunityDiversity(viewpoint, measure, v, err)

	if err != nil {
		return 0, err
	}

	m.metaCache[key] = v

	return v, nil
}

// Close releases resources owned by the metacommunity, in particular the
// arena created by WithSharedMemory. Buffers supplied through
// WithBufferProvider stay with the caller. After Close every query returns
// ErrClosed.
func (m *Metacommunity) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.arena != nil {
		m.arena.Free()
		m.arena = nil
	}

	return nil
}

func (m *Metacommunity) subcommunityDiversity(viewpoint float64, measure Measure) ([]float64, error) {
	key := cacheKey{viewpoint: viewpoint, measure: measure}
	if out, ok := m.subCache[key]; ok {
		m.metrics.RecordCacheHit(measure)
		return out, nil
	}

	start := time.Now()
	out, err := m.computeSubcommunity(viewpoint, measure)
	m.metrics.RecordSubcommunityDiversity(measure, time.Since(start), err)
	m.logger.LogSubcommunityDiversity(viewpoint, measure, err)
	if err != nil {
		return nil, err
	}

	m.subCache[key] = out

	return out, nil
}

func (m *Metacommunity) computeSubcommunity(viewpoint float64, measure Measure) ([]float64, error) {
	num, den, err := m.source.terms(measure)
	if err != nil {
		return nil, err
	}

	frac := ratio(num, den)
	out := powermean.WeightedColumns(1-viewpoint, m.ab.NormalizedSubcommunityAbundance(), frac)

	if measure.reciprocal() {
		for i, v := range out {
			out[i] = 1 / v
		}
	}

	return out, nil
}

// ratio divides num by den elementwise, writing zero wherever the
// denominator is zero. A nil num stands for the literal one; otherwise num
// has a single column and broadcasts across den. The result has den's shape.
func ratio(num, den *mat.Dense) *mat.Dense {
	rows, cols := den.Dims()
	out := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		dst := out.RawRowView(i)

		top := 1.0
		if num != nil {
			top = num.At(i, 0)
		}

		for j, d := range den.RawRowView(i) {
			if d != 0 {
				dst[j] = top / d
			}
		}
	}

	return out
}

func checkViewpoint(viewpoint float64) error {
	if viewpoint < 0 || math.IsNaN(viewpoint) {
		return fmt.Errorf("%w: %v", ErrNegativeViewpoint, viewpoint)
	}
	return nil
}
