// Package testutil provides testing utilities for cakes.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random datasets, computing exact
// nearest neighbors by brute force, and comparing hit lists that may differ
// only in how ties were broken.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(1000, 8)       // uniform [0, 1)
//	vecs = rng.ClusteredVectors(1000, 8, 5, 0.1)
//
// # Ground Truth
//
//	want := testutil.ExactKNN(data, query, k)
//	testutil.AssertEquivalentHits(t, want, got)
package testutil
