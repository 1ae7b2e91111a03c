// Command diversity partitions the diversity of a metacommunity into
// per-subcommunity and metacommunity measures.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecospect/diversity"
	"github.com/ecospect/diversity/abundance"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diversity",
		Short: "Partition the diversity of a metacommunity",
		Long: `diversity partitions the diversity of a metacommunity into
per-subcommunity measures (alpha, rho, beta, gamma and their normalized
variants) evaluated at one or more viewpoints, and aggregates each into
a metacommunity measure.

The counts file is a delimited table with subcommunity, species and
count columns. Species similarity is optional and comes from exactly
one source: a precomputed matrix (--similarity), a binary matrix with a
species list (--similarity plus --memmap-species), or a metric over
per-species feature vectors (--features plus --metric).`,
		Example: `  diversity -i counts.tsv -q 0 -q 1 -q 2
  diversity -i counts.tsv -s similarity.tsv.gz -q 1 -o report.tsv
  diversity -i counts.tsv --features traits.tsv --metric euclidean -q 2
  diversity --config run.yaml`,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	flags := rootCmd.Flags()
	flags.StringP("input", "i", "", "counts table with subcommunity, species and count columns")
	flags.StringP("similarity", "s", "", "similarity matrix file (tsv/csv, optionally gz/zst/lz4)")
	flags.String("memmap-species", "", "species list marking --similarity as a binary memory-mapped matrix")
	flags.String("features", "", "feature table with one species per row")
	flags.String("metric", "cosine", "similarity metric over feature rows (cosine or euclidean)")
	flags.Float64SliceP("viewpoint", "q", nil, "viewpoint to evaluate (repeatable)")
	flags.StringP("output", "o", "", "report file (default stdout)")
	flags.Int("chunk-size", 0, "rows per chunk when streaming similarity files")
	flags.Int("workers", runtime.NumCPU(), "parallel workers for metric-derived similarity")
	flags.Bool("shared-memory", false, "hold similarity products in a memory-mapped arena")
	flags.String("log-level", "info", "log level (debug, info, warn or error)")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("config", "", "YAML config file; flags override its values")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "diversity v%s\n", version)
		},
	})

	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	start := time.Now()

	records, err := readCounts(cfg.Input)
	if err != nil {
		return fmt.Errorf("read counts: %w", err)
	}

	ab, err := abundance.FromRecords(records)
	if err != nil {
		return fmt.Errorf("build abundance: %w", err)
	}

	source, closer, err := buildSimilarity(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	opts := []diversity.Option{diversity.WithLogger(logger)}
	if source != nil {
		opts = append(opts, diversity.WithSimilarity(source))
	}
	if cfg.SharedMemory {
		opts = append(opts, diversity.WithSharedMemory())
	}

	meta, err := diversity.New(ab, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = meta.Close() }()

	logger.Info("computing diversity",
		"species", len(meta.Species()),
		"subcommunities", len(meta.Subcommunities()),
		"viewpoints", len(cfg.Viewpoints),
		"similarity", source != nil,
	)

	rows, err := meta.Rows(cfg.Viewpoints...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := diversity.WriteRows(out, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("done", "rows", len(rows), "duration", time.Since(start))

	return nil
}
