package diversity

import (
	"github.com/ecospect/diversity/similarity"
)

// BufferProvider allocates zeroed float64 buffers outside the regular Go
// heap, for example from a memory-mapped arena. internal buffers obtained
// this way hold the similarity products of a metacommunity.
type BufferProvider interface {
	// AllocFloat64s returns a zeroed slice of n float64 values.
	AllocFloat64s(n int) ([]float64, error)
}

type options struct {
	similarity       similarity.Similarity
	buffers          BufferProvider
	sharedMemory     bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Metacommunity constructor behavior.
type Option func(*options)

// WithSimilarity configures a similarity source. Species then count toward
// diversity in proportion to how similar they are, instead of only as
// themselves. The source must order the same species as the abundance table.
//
// If nil is passed, the metacommunity stays frequency-sensitive.
func WithSimilarity(s similarity.Similarity) Option {
	return func(o *options) {
		o.similarity = s
	}
}

// WithSharedMemory keeps similarity products in an anonymous memory-mapped
// arena owned by the metacommunity instead of the Go heap. Only one
// subcommunity-shaped product is held at a time; switching between the raw
// and normalized forms rescales it in place rather than evaluating the
// similarity source again.
//
// The arena is released by Close. Has no effect without a similarity source.
func WithSharedMemory() Option {
	return func(o *options) {
		o.sharedMemory = true
	}
}

// WithBufferProvider is WithSharedMemory with caller-owned buffers. The
// provider must outlive every query on the metacommunity; Close does not
// release it.
//
// If nil is passed, similarity products stay on the Go heap.
func WithBufferProvider(p BufferProvider) Option {
	return func(o *options) {
		o.buffers = p
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// diversity evaluations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &diversity.BasicMetricsCollector{}
//	meta, _ := diversity.New(ab, diversity.WithMetricsCollector(metrics))
//	// ... run queries ...
//	stats := metrics.GetStats()
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(o *options) {
		if collector == nil {
			collector = NoopMetricsCollector{}
		}
		o.metricsCollector = collector
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}
