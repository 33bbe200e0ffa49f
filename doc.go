// Package cakes provides exact k-nearest-neighbor search over metric trees.
//
// An Index builds a binary cluster tree over a dataset and answers queries
// with one of five exact strategies (see package knn). Any metric works:
// vectors under L1, L2, L-infinity or angular distance, strings under edit
// distance, bit codes under Hamming distance.
//
// # Quick Start
//
//	ctx := context.Background()
//	data, _ := dataset.NewFloat("points", vectors, distance.MetricEuclidean)
//	idx, _ := cakes.New(ctx, data)
//	hits, _ := idx.Search(ctx, query, 10)
//	for _, h := range hits {
//	    fmt.Println(h.Index, h.Distance)
//	}
//
// Or with the fluent builder:
//
//	idx, _ := cakes.Vectors("points", vectors).
//	    Manhattan().
//	    Algorithm(knn.AlgorithmSieveV2).
//	    Build(ctx)
//
// # Strategies
//
// Every strategy returns the same neighbors up to ties among equal distances;
// they differ only in how many distances they compute.
//
//	knn.AlgorithmLinear              // scan everything; ground truth
//	knn.AlgorithmRepeatedRNN         // default; grow a range search
//	knn.AlgorithmSieveV1             // threshold over cluster grains
//	knn.AlgorithmSieveV2             // ...with centers as their own grains
//	knn.AlgorithmExpandingThreshold  // best-first branch and bound
//
// # Concurrency
//
// The tree is immutable once built, so any number of goroutines may search
// one Index. BatchSearch fans queries out under the limits configured with
// WithMaxConcurrency and WithRateLimit.
//
// # Persistence
//
// SaveFile writes the tree (not the dataset) with a go-json header and a
// zstd-compressed cluster table. LoadFile reattaches it to the dataset:
//
//	_ = idx.SaveFile(ctx, "points.cakes")
//	idx, _ = cakes.LoadFile(ctx, "points.cakes", data)
package cakes
