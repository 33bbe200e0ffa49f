// Package distance provides the metrics that define similarity for cakes.
//
// Every search strategy prunes with the triangle inequality, so the functions
// used to build and search a tree must be true metrics: symmetric,
// non-negative, zero only for identical instances, and triangle-inequality
// respecting. Squared Euclidean and raw cosine "distance" are not metrics and are not provided.
//
// # Supported Metrics
//
//   - MetricEuclidean: L2 distance (default)
//   - MetricManhattan: L1 (city-block) distance
//   - MetricChebyshev: L-infinity distance
//   - MetricAngular: normalized angle between vectors, in [0, 1]
//
// Non-vector metrics are available as plain functions:
//
//	d := distance.Hamming(hashA, hashB)
//	d := distance.Levenshtein("kitten", "sitting")
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricEuclidean)
//	d := fn(a, b)
package distance
