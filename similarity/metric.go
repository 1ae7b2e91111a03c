package similarity

import "github.com/viterin/vek"

// MetricFunc maps two species feature vectors to a similarity score.
// Scores should land in [0, 1] with 1 meaning identical; the diversity
// measures do not enforce this, but values outside the unit interval have
// no ecological interpretation.
type MetricFunc func(a, b []float64) float64

// Cosine scores feature vectors by the cosine of their angle.
func Cosine(a, b []float64) float64 {
	return vek.CosineSimilarity(a, b)
}

// Euclidean scores feature vectors by 1/(1+d), where d is their Euclidean
// distance, mapping [0, ∞) onto (0, 1].
func Euclidean(a, b []float64) float64 {
	return 1 / (1 + vek.Distance(a, b))
}
