package similarity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"
)

// File is a similarity source backed by a delimited text matrix on disk.
//
// The first line is a header carrying the species ordering. Each following
// line is one matrix row; an optional leading label column must repeat the
// header ordering. The matrix is never held in memory: every multiplication
// streams the file in chunks of chunkSize rows, so peak memory is
// chunkSize × S regardless of the total species count.
//
// Files ending in .gz, .zst or .lz4 are decompressed transparently.
type File struct {
	path        string
	species     []string
	chunkSize   int
	delim       rune
	compression string
}

// OpenFile opens a delimited similarity matrix and reads its header. The
// species ordering is fixed from the header; matrix rows are validated
// against it during each multiplication.
func OpenFile(path string, opts ...Option) (*File, error) {
	o := applyOptions(opts...)

	s := &File{
		path:        path,
		chunkSize:   o.chunkSize,
		compression: compressionExt(path),
	}

	s.delim = o.delim
	if s.delim == 0 {
		s.delim = '\t'
		if logicalExt(path) == ".csv" {
			s.delim = ','
		}
	}

	if err := s.readHeader(); err != nil {
		return nil, err
	}
	return s, nil
}

// Species returns the canonical species ordering from the file header.
func (s *File) Species() []string {
	return s.species
}

// WeightedSimilarities streams the matrix in row chunks, multiplying each
// chunk into weights. The output equals the full in-memory multiplication.
func (s *File) WeightedSimilarities(weights *mat.Dense) (*mat.Dense, error) {
	if err := checkWeights(weights, len(s.species)); err != nil {
		return nil, err
	}

	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := s.newReader(rc)
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("similarity: %s: read header: %w", s.path, err)
	}

	n := len(s.species)
	_, cols := weights.Dims()
	out := mat.NewDense(n, cols, nil)
	buf := make([]float64, s.chunkSize*n)

	for row := 0; row < n; {
		h := min(s.chunkSize, n-row)
		chunk := mat.NewDense(h, n, buf[:h*n])

		for i := 0; i < h; i++ {
			rec, err := r.Read()
			if err == io.EOF {
				return nil, fmt.Errorf("similarity: %s: matrix has %d rows, expected %d", s.path, row+i, n)
			}
			if err != nil {
				return nil, fmt.Errorf("similarity: %s: %w", s.path, err)
			}
			if err := s.parseRow(rec, row+i, chunk.RawRowView(i)); err != nil {
				return nil, err
			}
		}

		view := out.Slice(row, row+h, 0, cols).(*mat.Dense)
		view.Mul(chunk, weights)
		row += h
	}

	if _, err := r.Read(); err != io.EOF {
		return nil, fmt.Errorf("similarity: %s: matrix has more than %d rows", s.path, n)
	}
	return out, nil
}

func (s *File) newReader(rc io.Reader) *csv.Reader {
	r := csv.NewReader(rc)
	r.Comma = s.delim
	r.ReuseRecord = true
	// Rows may carry one label field more than the header; validated in parseRow.
	r.FieldsPerRecord = -1
	return r
}

func (s *File) readHeader() error {
	rc, err := s.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	rec, err := s.newReader(rc).Read()
	if err != nil {
		return fmt.Errorf("similarity: %s: read header: %w", s.path, err)
	}

	// A leading empty cell marks a label column header.
	if len(rec) > 0 && rec[0] == "" {
		rec = rec[1:]
	}
	if len(rec) == 0 {
		return fmt.Errorf("similarity: %s: empty header", s.path)
	}

	s.species = make([]string, len(rec))
	for i, name := range rec {
		s.species[i] = strings.TrimSpace(name)
	}
	return nil
}

// parseRow fills dst with the numeric fields of rec, accepting an optional
// leading row label that must match the species ordering.
func (s *File) parseRow(rec []string, row int, dst []float64) error {
	n := len(s.species)

	if len(rec) == n+1 {
		if strings.TrimSpace(rec[0]) != s.species[row] {
			return fmt.Errorf("similarity: %s: row %d labeled %q, expected %q", s.path, row, rec[0], s.species[row])
		}
		rec = rec[1:]
	}
	if len(rec) != n {
		return fmt.Errorf("similarity: %s: row %d has %d fields, expected %d", s.path, row, len(rec), n)
	}

	for k, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("similarity: %s: row %d: %w", s.path, row, err)
		}
		dst[k] = v
	}
	return nil
}

// open returns the file contents as a reader, decompressing by extension.
func (s *File) open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	switch s.compression {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("similarity: %s: %w", s.path, err)
		}
		return &multiCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("similarity: %s: %w", s.path, err)
		}
		return &multiCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	case ".lz4":
		return &multiCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

func compressionExt(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".gz", ".zst", ".lz4":
		return ext
	default:
		return ""
	}
}

func logicalExt(path string) string {
	if c := compressionExt(path); c != "" {
		path = strings.TrimSuffix(path, c)
	}
	return filepath.Ext(path)
}

// multiCloser closes a decompressor chain in order, keeping the first error.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
