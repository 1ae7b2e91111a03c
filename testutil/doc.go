// Package testutil provides testing utilities for the diversity module.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random abundance tables and similarity
// matrices, and naive reference implementations of the diversity pipeline
// for verifying the optimized one.
//
// # Random Table Generation
//
//	rng := testutil.NewRNG(seed)
//	counts := rng.Counts(30, 5)
//	z := rng.Similarity(30)
//
// # Ground Truth
//
//	sub, meta := testutil.NaiveDiversity(counts, z, viewpoint, "alpha")
package testutil
