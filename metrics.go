package diversity

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    diversityCounter    prometheus.Counter
//	    similarityHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSubcommunityDiversity(measure diversity.Measure, duration time.Duration, err error) {
//	    p.diversityCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordSubcommunityDiversity is called after each subcommunity diversity
	// evaluation that was not served from cache.
	// duration is the total time taken, err is nil if successful.
	RecordSubcommunityDiversity(measure Measure, duration time.Duration, err error)

	// RecordMetacommunityDiversity is called after each metacommunity
	// diversity evaluation that was not served from cache.
	RecordMetacommunityDiversity(measure Measure, duration time.Duration, err error)

	// RecordWeightedSimilarities is called after each similarity product
	// evaluation. species is the number of rows in the product.
	RecordWeightedSimilarities(species int, duration time.Duration, err error)

	// RecordCacheHit is called when a diversity query is served from cache.
	RecordCacheHit(measure Measure)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSubcommunityDiversity(Measure, time.Duration, error)  {}
func (NoopMetricsCollector) RecordMetacommunityDiversity(Measure, time.Duration, error) {}
func (NoopMetricsCollector) RecordWeightedSimilarities(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordCacheHit(Measure)                                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SubcommunityCount       atomic.Int64
	SubcommunityErrors      atomic.Int64
	SubcommunityTotalNanos  atomic.Int64
	MetacommunityCount      atomic.Int64
	MetacommunityErrors     atomic.Int64
	MetacommunityTotalNanos atomic.Int64
	SimilarityCount         atomic.Int64
	SimilarityErrors        atomic.Int64
	SimilarityTotalNanos    atomic.Int64
	CacheHits               atomic.Int64
}

// RecordSubcommunityDiversity implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubcommunityDiversity(measure Measure, duration time.Duration, err error) {
	b.SubcommunityCount.Add(1)
	b.SubcommunityTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SubcommunityErrors.Add(1)
	}
}

// RecordMetacommunityDiversity implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMetacommunityDiversity(measure Measure, duration time.Duration, err error) {
	b.MetacommunityCount.Add(1)
	b.MetacommunityTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MetacommunityErrors.Add(1)
	}
}

// RecordWeightedSimilarities implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWeightedSimilarities(species int, duration time.Duration, err error) {
	b.SimilarityCount.Add(1)
	b.SimilarityTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SimilarityErrors.Add(1)
	}
}

// RecordCacheHit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheHit(measure Measure) {
	b.CacheHits.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SubcommunityCount:     b.SubcommunityCount.Load(),
		SubcommunityErrors:    b.SubcommunityErrors.Load(),
		SubcommunityAvgNanos:  avgNanos(&b.SubcommunityCount, &b.SubcommunityTotalNanos),
		MetacommunityCount:    b.MetacommunityCount.Load(),
		MetacommunityErrors:   b.MetacommunityErrors.Load(),
		MetacommunityAvgNanos: avgNanos(&b.MetacommunityCount, &b.MetacommunityTotalNanos),
		SimilarityCount:       b.SimilarityCount.Load(),
		SimilarityErrors:      b.SimilarityErrors.Load(),
		SimilarityAvgNanos:    avgNanos(&b.SimilarityCount, &b.SimilarityTotalNanos),
		CacheHits:             b.CacheHits.Load(),
	}
}

func avgNanos(count, total *atomic.Int64) int64 {
	n := count.Load()
	if n == 0 {
		return 0
	}
	return total.Load() / n
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SubcommunityCount     int64
	SubcommunityErrors    int64
	SubcommunityAvgNanos  int64
	MetacommunityCount    int64
	MetacommunityErrors   int64
	MetacommunityAvgNanos int64
	SimilarityCount       int64
	SimilarityErrors      int64
	SimilarityAvgNanos    int64
	CacheHits             int64
}
