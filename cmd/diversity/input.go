package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ecospect/diversity/abundance"
	"github.com/ecospect/diversity/similarity"
)

// readCounts loads a long-form counts table with subcommunity, species and
// count columns. The first line is skipped as a header unless its count
// column already parses as a number.
func readCounts(path string) ([]abundance.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = delimiterFor(path)
	r.FieldsPerRecord = 3
	r.ReuseRecord = true

	records := make([]abundance.Record, 0, 1024)
	line := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		count, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}

		records = append(records, abundance.Record{
			Subcommunity: strings.TrimSpace(fields[0]),
			Species:      strings.TrimSpace(fields[1]),
			Count:        count,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no counts", path)
	}

	return records, nil
}

// readFeatures loads a feature table with one species per row: a species
// label followed by numeric feature columns. The first line is skipped as
// a header unless its second column already parses as a number.
func readFeatures(path string) (*mat.Dense, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = delimiterFor(path)

	var (
		species []string
		data    []float64
		dim     int
	)
	line := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++

		if line == 1 && !numericSecondField(fields) {
			r.FieldsPerRecord = 0
			continue
		}
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("%s: line %d: want a species label and at least one feature", path, line)
		}

		if dim == 0 {
			dim = len(fields) - 1
		}
		species = append(species, strings.TrimSpace(fields[0]))
		for _, field := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: line %d: %w", path, line, err)
			}
			data = append(data, v)
		}
	}

	if len(species) == 0 {
		return nil, nil, fmt.Errorf("%s: no features", path)
	}

	return mat.NewDense(len(species), dim, data), species, nil
}

// readSpeciesList loads a species ordering, one name per line. Blank lines
// are ignored.
func readSpeciesList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var species []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			species = append(species, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(species) == 0 {
		return nil, fmt.Errorf("%s: no species", path)
	}

	return species, nil
}

// buildSimilarity constructs the configured similarity source. A nil
// source means the run is frequency-sensitive. The returned closer, if
// any, must be closed after the last query.
func buildSimilarity(cfg *config) (similarity.Similarity, io.Closer, error) {
	switch {
	case cfg.Similarity != "" && cfg.MemmapSpecies != "":
		species, err := readSpeciesList(cfg.MemmapSpecies)
		if err != nil {
			return nil, nil, fmt.Errorf("read species list: %w", err)
		}
		m, err := similarity.OpenMemmap(cfg.Similarity, species)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil

	case cfg.Similarity != "":
		var opts []similarity.Option
		if cfg.ChunkSize > 0 {
			opts = append(opts, similarity.WithChunkSize(cfg.ChunkSize))
		}
		f, err := similarity.OpenFile(cfg.Similarity, opts...)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil

	case cfg.Features != "":
		metric, err := metricFor(cfg.Metric)
		if err != nil {
			return nil, nil, err
		}
		features, species, err := readFeatures(cfg.Features)
		if err != nil {
			return nil, nil, fmt.Errorf("read features: %w", err)
		}
		var opts []similarity.Option
		if cfg.Workers > 1 {
			opts = append(opts, similarity.WithWorkers(cfg.Workers))
		}
		return similarity.NewFunc(metric, features, species, opts...), nil, nil
	}

	return nil, nil, nil
}

func numericSecondField(fields []string) bool {
	if len(fields) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	return err == nil
}

func metricFor(name string) (similarity.MetricFunc, error) {
	switch strings.ToLower(name) {
	case "", "cosine":
		return similarity.Cosine, nil
	case "euclidean":
		return similarity.Euclidean, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

func delimiterFor(path string) rune {
	name := strings.TrimSuffix(path, filepath.Ext(path))
	if filepath.Ext(path) == ".csv" || filepath.Ext(name) == ".csv" {
		return ','
	}
	return '\t'
}
