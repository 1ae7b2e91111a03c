package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/ecospect/diversity"
	"github.com/ecospect/diversity/abundance"
	"github.com/ecospect/diversity/similarity"
	"github.com/ecospect/diversity/testutil"
)

// shapes are the abundance table sizes the benchmarks sweep over.
var shapes = []struct {
	species        int
	subcommunities int
}{
	{64, 8},
	{256, 16},
	{1024, 32},
}

func shapeName(species, subcommunities int) string {
	return fmt.Sprintf("%dx%d", species, subcommunities)
}

func newAbundance(b *testing.B, species, subcommunities int) *abundance.Abundance {
	b.Helper()

	rng := testutil.NewRNG(1)
	ab, err := abundance.New(rng.Counts(species, subcommunities),
		testutil.SpeciesNames(species), testutil.SubcommunityNames(subcommunities))
	if err != nil {
		b.Fatal(err)
	}
	return ab
}

func newMetacommunity(b *testing.B, species, subcommunities int, withSimilarity bool) *diversity.Metacommunity {
	b.Helper()

	ab := newAbundance(b, species, subcommunities)

	var opts []diversity.Option
	if withSimilarity {
		rng := testutil.NewRNG(2)
		source := similarity.NewMatrix(rng.Similarity(species), testutil.SpeciesNames(species))
		opts = append(opts, diversity.WithSimilarity(source))
	}

	meta, err := diversity.New(ab, opts...)
	if err != nil {
		b.Fatal(err)
	}
	return meta
}
