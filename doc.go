// Package diversity partitions the diversity of a metacommunity into
// subcommunity components.
//
// It implements the similarity-sensitive diversity measures of Reeve et al.,
// "How to partition diversity": alpha, rho, beta and gamma plus their
// size-normalized variants, evaluated at any viewpoint q >= 0.
//
// # Quick Start
//
// Species counts go in rows, subcommunities in columns:
//
//	counts := mat.NewDense(2, 2, []float64{
//	    10, 5,
//	    10, 15,
//	})
//	ab, _ := abundance.New(counts, []string{"sp1", "sp2"}, []string{"A", "B"})
//
//	meta, _ := diversity.New(ab)
//	alpha, _ := meta.SubcommunityDiversity(1, diversity.MeasureNormalizedAlpha)
//	gamma, _ := meta.MetacommunityDiversity(1, diversity.MeasureGamma)
//
// # Viewpoint
//
// The viewpoint q controls how much rare species count. At q=0 every present
// species counts fully (richness), q=1 weighs species by abundance (Shannon),
// q=2 emphasizes dominant species (Simpson), and q=inf scores only the most
// dominant one. Between the named points every real q >= 0 is valid.
//
// # Similarity
//
// With a similarity source, species trade diversity for redundancy in
// proportion to how alike they are. Sources live in the similarity package:
// an in-memory matrix, a delimited file (optionally gzip, zstd or lz4
// compressed), a binary memory-mapped matrix, or a metric over feature
// vectors.
//
//	sim := similarity.NewMatrix(z, []string{"sp1", "sp2"})
//	meta, _ := diversity.New(ab, diversity.WithSimilarity(sim))
//
// Without a similarity source, measures are frequency-sensitive: the
// identity similarity matrix is implied.
//
// # Reports
//
// Rows assembles the standard report, one row per community per viewpoint,
// and WriteRows renders it as delimited text:
//
//	rows, _ := meta.Rows(0, 1, 2)
//	_ = diversity.WriteRows(os.Stdout, rows)
//
// # Shared Memory
//
// Similarity products over large species sets dominate memory use. With
// WithSharedMemory they live in an anonymous memory-mapped arena instead of
// the Go heap, and only one subcommunity-shaped product is materialized at a
// time. Close releases the arena.
package diversity
