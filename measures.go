package diversity

import "fmt"

// Measure identifies one of the partitioned diversity measures.
//
// Alpha, rho, beta and gamma follow Reeve et al., "How to partition
// diversity". The normalized variants remove the effect of subcommunity
// size, so a subcommunity twice as large does not score twice the alpha.
type Measure string

const (
	// MeasureAlpha is the diversity of a subcommunity in isolation, scaled
	// by its share of the metacommunity.
	MeasureAlpha Measure = "alpha"

	// MeasureRho is the redundancy of a subcommunity: how much of its
	// composition is mirrored elsewhere in the metacommunity.
	MeasureRho Measure = "rho"

	// MeasureBeta is the distinctiveness of a subcommunity, the reciprocal
	// of rho.
	MeasureBeta Measure = "beta"

	// MeasureGamma is the contribution per individual toward the diversity
	// of the metacommunity as a whole.
	MeasureGamma Measure = "gamma"

	// MeasureNormalizedAlpha is alpha with the subcommunity size factored
	// out: the diversity of the subcommunity on its own terms.
	MeasureNormalizedAlpha Measure = "normalized_alpha"

	// MeasureNormalizedRho is rho with the subcommunity size factored out.
	MeasureNormalizedRho Measure = "normalized_rho"

	// MeasureNormalizedBeta is the reciprocal of normalized rho.
	MeasureNormalizedBeta Measure = "normalized_beta"
)

// Measures returns all supported measures in report column order.
func Measures() []Measure {
	return []Measure{
		MeasureAlpha,
		MeasureRho,
		MeasureBeta,
		MeasureGamma,
		MeasureNormalizedAlpha,
		MeasureNormalizedRho,
		MeasureNormalizedBeta,
	}
}

// ParseMeasure converts a measure name into a Measure.
func ParseMeasure(s string) (Measure, error) {
	m := Measure(s)
	if !m.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, s)
	}

	return m, nil
}

func (m Measure) valid() bool {
	switch m {
	case MeasureAlpha, MeasureRho, MeasureBeta, MeasureGamma,
		MeasureNormalizedAlpha, MeasureNormalizedRho, MeasureNormalizedBeta:
		return true
	default:
		return false
	}
}

// reciprocal reports whether the measure inverts the power mean. Beta-type
// measures are defined as the reciprocal of their rho counterparts.
func (m Measure) reciprocal() bool {
	return m == MeasureBeta || m == MeasureNormalizedBeta
}
