package abundance

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"gonum.org/v1/gonum/mat"
)

// Record is one row of a long-form counts table: the count of one species
// in one subcommunity.
type Record struct {
	Subcommunity string
	Species      string
	Count        float64
}

// FromRecords pivots a long-form record table into an Abundance. Species
// and subcommunity orderings follow first appearance in the table unless
// fixed with WithSpeciesOrdering / WithSubcommunityOrdering.
//
// Each (subcommunity, species) pair may occur at most once; duplicates are
// reported as ErrDuplicatePair. Cells absent from the table are zero.
func FromRecords(records []Record, opts ...Option) (*Abundance, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCounts
	}

	o := applyOptions(opts...)

	species, speciesIdx, err := buildOrdering(o.species, records, func(r Record) string { return r.Species }, "species")
	if err != nil {
		return nil, err
	}
	subcommunities, subIdx, err := buildOrdering(o.subcommunities, records, func(r Record) string { return r.Subcommunity }, "subcommunity")
	if err != nil {
		return nil, err
	}

	counts := mat.NewDense(len(species), len(subcommunities), nil)
	seen := roaring64.New()
	for _, r := range records {
		i, ok := speciesIdx[r.Species]
		if !ok {
			return nil, fmt.Errorf("abundance: species %q not in the explicit ordering", r.Species)
		}
		j, ok := subIdx[r.Subcommunity]
		if !ok {
			return nil, fmt.Errorf("abundance: subcommunity %q not in the explicit ordering", r.Subcommunity)
		}

		cell := uint64(i)*uint64(len(subcommunities)) + uint64(j)
		if !seen.CheckedAdd(cell) {
			return nil, fmt.Errorf("%w: (%q, %q)", ErrDuplicatePair, r.Subcommunity, r.Species)
		}
		counts.Set(i, j, r.Count)
	}

	return New(counts, species, subcommunities, opts...)
}

// buildOrdering returns the label ordering and its index map, either from
// an explicit ordering or from first appearance in the records.
func buildOrdering(explicit []string, records []Record, label func(Record) string, kind string) ([]string, map[string]int, error) {
	if explicit != nil {
		idx := make(map[string]int, len(explicit))
		for i, name := range explicit {
			if _, ok := idx[name]; ok {
				return nil, nil, fmt.Errorf("abundance: duplicate %s %q in ordering", kind, name)
			}
			idx[name] = i
		}
		return explicit, idx, nil
	}

	var names []string
	idx := make(map[string]int)
	for _, r := range records {
		name := label(r)
		if _, ok := idx[name]; !ok {
			idx[name] = len(names)
			names = append(names, name)
		}
	}
	return names, idx, nil
}
