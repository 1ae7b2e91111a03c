package abundance

// BufferProvider supplies externally owned float64 buffers for derived
// tensors. Implementations must return zeroed slices with len == n.
// The arena allocator in internal/arena satisfies this interface.
type BufferProvider interface {
	AllocFloat64s(n int) ([]float64, error)
}

type options struct {
	buffers        BufferProvider
	species        []string
	subcommunities []string
}

// Option configures an Abundance during construction.
type Option func(*options)

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBuffers backs all derived tensors with buffers from the provider
// instead of private allocations. The buffers are claimed eagerly during
// construction; the caller owns their lifetime.
func WithBuffers(p BufferProvider) Option {
	return func(o *options) {
		o.buffers = p
	}
}

// WithSpeciesOrdering fixes the species (row) ordering used by FromRecords
// instead of first-appearance order. Records naming species outside the
// ordering are an error. Ignored by New, which takes orderings directly.
func WithSpeciesOrdering(species []string) Option {
	return func(o *options) {
		o.species = species
	}
}

// WithSubcommunityOrdering fixes the subcommunity (column) ordering used by
// FromRecords instead of first-appearance order. Records naming
// subcommunities outside the ordering are an error. Ignored by New.
func WithSubcommunityOrdering(subcommunities []string) Option {
	return func(o *options) {
		o.subcommunities = subcommunities
	}
}
