package diversity

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ecospect/diversity/abundance"
	"github.com/ecospect/diversity/similarity"
)

// componentSource resolves the numerator and denominator of the ratio behind
// a measure. A nil numerator stands for the literal one. When present, the
// numerator has a single column and broadcasts across the denominator.
type componentSource interface {
	terms(measure Measure) (num, den *mat.Dense, err error)
}

// measureTerms maps a measure onto its component tensors. The three getters
// produce the subcommunity-shaped tensor, its size-normalized form, and the
// single-column metacommunity tensor.
func measureTerms(measure Measure, sub, norm, meta func() (*mat.Dense, error)) (*mat.Dense, *mat.Dense, error) {
	var num, den *mat.Dense
	var err error

	switch measure {
	case MeasureRho, MeasureBeta, MeasureNormalizedRho, MeasureNormalizedBeta:
		if num, err = meta(); err != nil {
			return nil, nil, err
		}
	}

	switch measure {
	case MeasureGamma:
		den, err = meta()
	case MeasureNormalizedAlpha, MeasureNormalizedRho, MeasureNormalizedBeta:
		den, err = norm()
	default:
		den, err = sub()
	}
	if err != nil {
		return nil, nil, err
	}

	return num, den, nil
}

// frequencyComponents derives measure components straight from relative
// abundances. Used when no similarity source is configured: every species is
// maximally distinct from every other.
type frequencyComponents struct {
	ab *abundance.Abundance
}

func (f *frequencyComponents) terms(measure Measure) (*mat.Dense, *mat.Dense, error) {
	return measureTerms(measure,
		func() (*mat.Dense, error) { return f.ab.SubcommunityAbundance(), nil },
		func() (*mat.Dense, error) { return f.ab.NormalizedSubcommunityAbundance(), nil },
		func() (*mat.Dense, error) { return f.ab.MetacommunityAbundance(), nil },
	)
}

// similarityComponents derives measure components from similarity-weighted
// abundances. Each product is an ordinariness tensor: entry (i, c) is how
// ordinary species i looks inside subcommunity c once lookalike species are
// counted. Products are evaluated once and kept on the heap.
type similarityComponents struct {
	ab      *abundance.Abundance
	sim     similarity.Similarity
	metrics MetricsCollector
	logger  *Logger

	sub  *mat.Dense
	norm *mat.Dense
	meta *mat.Dense
}

func (s *similarityComponents) terms(measure Measure) (*mat.Dense, *mat.Dense, error) {
	return measureTerms(measure, s.subcommunity, s.normalizedSubcommunity, s.metacommunity)
}

func (s *similarityComponents) subcommunity() (*mat.Dense, error) {
	if s.sub == nil {
		out, err := weightedSimilarities(s.sim, s.ab.SubcommunityAbundance(), s.metrics, s.logger)
		if err != nil {
			return nil, err
		}
		s.sub = out
	}
	return s.sub, nil
}

func (s *similarityComponents) normalizedSubcommunity() (*mat.Dense, error) {
	if s.norm == nil {
		out, err := weightedSimilarities(s.sim, s.ab.NormalizedSubcommunityAbundance(), s.metrics, s.logger)
		if err != nil {
			return nil, err
		}
		s.norm = out
	}
	return s.norm, nil
}

func (s *similarityComponents) metacommunity() (*mat.Dense, error) {
	if s.meta == nil {
		out, err := weightedSimilarities(s.sim, s.ab.MetacommunityAbundance(), s.metrics, s.logger)
		if err != nil {
			return nil, err
		}
		s.meta = out
	}
	return s.meta, nil
}

// sharedComponents keeps similarity products in buffers from a
// BufferProvider. Only one subcommunity-shaped product is held at a time:
// the raw and normalized forms differ per column by the subcommunity
// normalizing constant, so switching forms rescales the buffer in place
// instead of evaluating the similarity source again. For file-backed
// sources that saves a full pass over the matrix.
type sharedComponents struct {
	ab      *abundance.Abundance
	sim     similarity.Similarity
	metrics MetricsCollector
	logger  *Logger

	subBuf  []float64
	metaBuf []float64

	sub        *mat.Dense
	normalized bool
	meta       *mat.Dense
}

func newSharedComponents(ab *abundance.Abundance, sim similarity.Similarity, buffers BufferProvider, metrics MetricsCollector, logger *Logger) (*sharedComponents, error) {
	species, subcommunities := ab.Dims()

	subBuf, err := buffers.AllocFloat64s(species * subcommunities)
	if err != nil {
		return nil, fmt.Errorf("alloc similarity product buffer: %w", err)
	}

	metaBuf, err := buffers.AllocFloat64s(species)
	if err != nil {
		return nil, fmt.Errorf("alloc metacommunity product buffer: %w", err)
	}

	return &sharedComponents{
		ab:      ab,
		sim:     sim,
		metrics: metrics,
		logger:  logger,
		subBuf:  subBuf,
		metaBuf: metaBuf,
	}, nil
}

func (s *sharedComponents) terms(measure Measure) (*mat.Dense, *mat.Dense, error) {
	return measureTerms(measure, s.subcommunity, s.normalizedSubcommunity, s.metacommunity)
}

func (s *sharedComponents) subcommunity() (*mat.Dense, error) {
	if err := s.fill(s.ab.SubcommunityAbundance, false); err != nil {
		return nil, err
	}
	if s.normalized {
		s.rescale(false)
	}
	return s.sub, nil
}

func (s *sharedComponents) normalizedSubcommunity() (*mat.Dense, error) {
	if err := s.fill(s.ab.NormalizedSubcommunityAbundance, true); err != nil {
		return nil, err
	}
	if !s.normalized {
		s.rescale(true)
	}
	return s.sub, nil
}

func (s *sharedComponents) metacommunity() (*mat.Dense, error) {
	if s.meta != nil {
		return s.meta, nil
	}

	out, err := weightedSimilarities(s.sim, s.ab.MetacommunityAbundance(), s.metrics, s.logger)
	if err != nil {
		return nil, err
	}

	rows, _ := out.Dims()
	dst := mat.NewDense(rows, 1, s.metaBuf[:rows])
	dst.Copy(out)
	s.meta = dst

	return s.meta, nil
}

// fill evaluates the similarity source into the shared buffer on first use.
func (s *sharedComponents) fill(weights func() *mat.Dense, normalized bool) error {
	if s.sub != nil {
		return nil
	}

	out, err := weightedSimilarities(s.sim, weights(), s.metrics, s.logger)
	if err != nil {
		return err
	}

	rows, cols := out.Dims()
	dst := mat.NewDense(rows, cols, s.subBuf[:rows*cols])
	dst.Copy(out)
	s.sub = dst
	s.normalized = normalized

	return nil
}

// rescale switches the held product between its raw and normalized forms.
// Similarity products are linear in the abundance columns, so dividing
// column c by the normalizing constant of subcommunity c yields the
// normalized product, and multiplying restores the raw one.
func (s *sharedComponents) rescale(toNormalized bool) {
	consts := s.ab.SubcommunityNormalizingConstants()
	rows, _ := s.sub.Dims()

	for i := 0; i < rows; i++ {
		row := s.sub.RawRowView(i)
		for j, k := range consts {
			if toNormalized {
				row[j] /= k
			} else {
				row[j] *= k
			}
		}
	}

	s.normalized = toNormalized
}

func weightedSimilarities(sim similarity.Similarity, weights *mat.Dense, metrics MetricsCollector, logger *Logger) (*mat.Dense, error) {
	rows, cols := weights.Dims()

	start := time.Now()
	out, err := sim.WeightedSimilarities(weights)
	metrics.RecordWeightedSimilarities(rows, time.Since(start), err)
	logger.LogWeightedSimilarities(rows, cols, err)

	return out, err
}
