package integration_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ecospect/diversity"
	"github.com/ecospect/diversity/abundance"
	"github.com/ecospect/diversity/similarity"
	"github.com/ecospect/diversity/testutil"
)

const (
	pipelineSpecies        = 24
	pipelineSubcommunities = 5
)

var pipelineViewpoints = []float64{0, 1, 2, math.Inf(1)}

func pipelineFixture(t *testing.T) (*abundance.Abundance, *mat.Dense) {
	t.Helper()

	rng := testutil.NewRNG(42)
	counts := rng.Counts(pipelineSpecies, pipelineSubcommunities)

	ab, err := abundance.New(counts,
		testutil.SpeciesNames(pipelineSpecies),
		testutil.SubcommunityNames(pipelineSubcommunities))
	require.NoError(t, err)

	return ab, rng.Similarity(pipelineSpecies)
}

func similarityTSV(z *mat.Dense, species []string) []byte {
	var sb strings.Builder
	for _, name := range species {
		sb.WriteByte('\t')
		sb.WriteString(name)
	}
	sb.WriteByte('\n')
	for i, name := range species {
		sb.WriteString(name)
		for j := range species {
			sb.WriteByte('\t')
			sb.WriteString(strconv.FormatFloat(z.At(i, j), 'f', -1, 64))
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func writeGzipSimilarity(t *testing.T, z *mat.Dense, species []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "similarity.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := gzip.NewWriter(f)
	_, err = zw.Write(similarityTSV(z, species))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return path
}

func writeBinarySimilarity(t *testing.T, z *mat.Dense) string {
	t.Helper()

	rows, cols := z.Dims()
	buf := make([]byte, rows*cols*8)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			off := (i*cols + j) * 8
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(z.At(i, j)))
		}
	}

	path := filepath.Join(t.TempDir(), "similarity.f64")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

// TestPipeline_FileSimilarity drives the whole stack at once: a gzip
// similarity file streamed in chunks, shared product memory, metrics and
// the result cache, checked measure by measure against a naive
// re-implementation.
func TestPipeline_FileSimilarity(t *testing.T) {
	ab, z := pipelineFixture(t)

	source, err := similarity.OpenFile(writeGzipSimilarity(t, z, ab.Species()),
		similarity.WithChunkSize(7))
	require.NoError(t, err)

	collector := &diversity.BasicMetricsCollector{}
	meta, err := diversity.New(ab,
		diversity.WithSimilarity(source),
		diversity.WithSharedMemory(),
		diversity.WithMetricsCollector(collector),
	)
	require.NoError(t, err)
	defer func() { _ = meta.Close() }()

	counts := ab.Counts()
	for _, viewpoint := range pipelineViewpoints {
		for _, measure := range diversity.Measures() {
			sub, err := meta.SubcommunityDiversity(viewpoint, measure)
			require.NoError(t, err)

			wantSub, wantMeta := testutil.NaiveDiversity(counts, z, viewpoint, string(measure))
			require.Len(t, sub, pipelineSubcommunities)
			for j := range wantSub {
				assert.InEpsilon(t, wantSub[j], sub[j], 1e-9,
					"%s at viewpoint %v, subcommunity %d", measure, viewpoint, j)
			}

			got, err := meta.MetacommunityDiversity(viewpoint, measure)
			require.NoError(t, err)
			assert.InEpsilon(t, wantMeta, got, 1e-9,
				"metacommunity %s at viewpoint %v", measure, viewpoint)
		}
	}

	stats := collector.GetStats()
	assert.Zero(t, stats.SubcommunityErrors)
	assert.Zero(t, stats.SimilarityErrors)
	assert.Positive(t, stats.SubcommunityCount)
	assert.Positive(t, stats.MetacommunityCount)
	// One subcommunity product (rescaled in place between its raw and
	// normalized forms) and one metacommunity product.
	assert.EqualValues(t, 2, stats.SimilarityCount)
	assert.Positive(t, stats.CacheHits)
}

func TestPipeline_MemmapMatchesFile(t *testing.T) {
	ab, z := pipelineFixture(t)

	fileSource, err := similarity.OpenFile(writeGzipSimilarity(t, z, ab.Species()))
	require.NoError(t, err)

	memmapSource, err := similarity.OpenMemmap(writeBinarySimilarity(t, z), ab.Species())
	require.NoError(t, err)
	defer func() { _ = memmapSource.Close() }()

	fromFile, err := diversity.New(ab, diversity.WithSimilarity(fileSource))
	require.NoError(t, err)
	defer func() { _ = fromFile.Close() }()

	fromMemmap, err := diversity.New(ab, diversity.WithSimilarity(memmapSource))
	require.NoError(t, err)
	defer func() { _ = fromMemmap.Close() }()

	for _, viewpoint := range pipelineViewpoints {
		for _, measure := range diversity.Measures() {
			want, err := fromFile.SubcommunityDiversity(viewpoint, measure)
			require.NoError(t, err)
			got, err := fromMemmap.SubcommunityDiversity(viewpoint, measure)
			require.NoError(t, err)

			for j := range want {
				assert.InEpsilon(t, want[j], got[j], 1e-12,
					"%s at viewpoint %v, subcommunity %d", measure, viewpoint, j)
			}
		}
	}
}

func TestPipeline_Report(t *testing.T) {
	ab, z := pipelineFixture(t)

	meta, err := diversity.New(ab,
		diversity.WithSimilarity(similarity.NewMatrix(z, ab.Species())))
	require.NoError(t, err)
	defer func() { _ = meta.Close() }()

	rows, err := meta.Rows(0, 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3*(pipelineSubcommunities+1))

	var buf bytes.Buffer
	require.NoError(t, diversity.WriteRows(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+len(rows))
	assert.Equal(t,
		"community\tviewpoint\talpha\trho\tbeta\tgamma\tnormalized_alpha\tnormalized_rho\tnormalized_beta",
		lines[0])

	names := testutil.SubcommunityNames(pipelineSubcommunities)
	for i, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		require.Len(t, fields, 9, "line %d", i+1)

		if (i+1)%(pipelineSubcommunities+1) == 0 {
			assert.Equal(t, diversity.MetacommunityName, fields[0])
		} else {
			assert.Contains(t, names, fields[0])
		}

		for _, field := range fields[2:] {
			v, err := strconv.ParseFloat(field, 64)
			require.NoError(t, err)
			assert.Positive(t, v)
		}
	}
}
