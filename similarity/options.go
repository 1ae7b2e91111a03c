package similarity

// DefaultChunkSize is the number of matrix rows a File source reads per
// chunk. Larger chunks are faster but take more memory.
const DefaultChunkSize = 100

type options struct {
	chunkSize int
	delim     rune
	workers   int
}

// Option configures a similarity source during construction.
type Option func(*options)

func applyOptions(opts ...Option) *options {
	o := &options{
		chunkSize: DefaultChunkSize,
		workers:   1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithChunkSize sets the number of matrix rows read per chunk by File
// sources. Values <= 0 select DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithDelimiter overrides the field delimiter for File sources. By default
// .csv files use ',' and everything else uses '\t'.
func WithDelimiter(d rune) Option {
	return func(o *options) {
		o.delim = d
	}
}

// WithWorkers sets the number of goroutines a Func source fans row chunks
// out to. Values <= 1 keep the computation sequential.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 1 {
			o.workers = n
		}
	}
}
