package similarity

import (
	"fmt"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"

	"github.com/ecospect/diversity/internal/mmap"
)

// Memmap is a similarity source over a row-major float64 binary matrix
// accessed through a read-only file mapping. Rows are consumed zero-copy;
// nothing is buffered beyond the kernel page cache, so matrices larger than
// RAM stay usable.
type Memmap struct {
	mapping *mmap.Mapping
	species []string
	path    string
}

// OpenMemmap maps the S×S row-major float64 matrix at path, with S fixed by
// the species ordering. Bytes are interpreted in host byte order
// (little-endian on all supported platforms). The file size must be exactly
// S·S·8 bytes.
func OpenMemmap(path string, species []string) (*Memmap, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("similarity: %s: empty species ordering", path)
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	n := len(species)
	if want := n * n * 8; m.Size() != want {
		m.Close()
		return nil, fmt.Errorf("similarity: %s: %d bytes does not match %d species (want %d)", path, m.Size(), n, want)
	}

	// Multiplications walk the matrix front to back.
	_ = m.Advise(mmap.AccessSequential)

	return &Memmap{mapping: m, species: species, path: path}, nil
}

// Species returns the canonical species ordering.
func (s *Memmap) Species() []string {
	return s.species
}

// Close unmaps the matrix. The source is unusable afterwards.
func (s *Memmap) Close() error {
	return s.mapping.Close()
}

// WeightedSimilarities multiplies the mapped matrix into weights, one
// zero-copy row at a time.
func (s *Memmap) WeightedSimilarities(weights *mat.Dense) (*mat.Dense, error) {
	if err := checkWeights(weights, len(s.species)); err != nil {
		return nil, err
	}

	n := len(s.species)
	_, cols := weights.Dims()
	wt := transposed(weights)
	out := mat.NewDense(n, cols, nil)

	for i := 0; i < n; i++ {
		row, err := s.mapping.Float64s(i*n*8, n)
		if err != nil {
			return nil, fmt.Errorf("similarity: %s: %w", s.path, err)
		}
		outRow := out.RawRowView(i)
		for j := 0; j < cols; j++ {
			outRow[j] = vek.Dot(row, wt.RawRowView(j))
		}
	}
	return out, nil
}
