// Package knn implements exact k-nearest-neighbor search over a metric tree.
//
// Every strategy returns the k instances closest to the query as hits
// ordered by (Distance, Index), or every instance when the tree holds fewer
// than k. Strategies differ only in how many distances they compute:
//
//   - Linear scans every instance.
//   - RepeatedRNN grows the radius of a range search until it holds k hits.
//   - SieveV1 and SieveV2 shrink a certified threshold over a set of grains.
//   - ExpandingThreshold runs a best-first branch and bound.
//
// A search never mutates the tree, so any number of searches may share one.
package knn
