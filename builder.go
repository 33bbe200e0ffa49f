package cakes

import (
	"context"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/distance"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/tree"
)

// Vectors creates a new builder for an index over float vectors.
//
// The builder is immutable - each method returns a new builder with the updated configuration.
// This ensures thread-safety and prevents accidental state sharing.
//
// Example:
//
//	idx, err := cakes.Vectors("points", vecs).
//	    Manhattan().
//	    Algorithm(knn.AlgorithmSieveV2).
//	    MaxDepth(32).
//	    Build(ctx)
func Vectors(name string, vectors [][]float64) VectorBuilder {
	return VectorBuilder{
		name:      name,
		vectors:   vectors,
		metric:    distance.MetricEuclidean,
		algorithm: knn.DefaultAlgorithm,
		build:     tree.DefaultBuildOptions,
	}
}

// VectorBuilder is an immutable fluent builder for float vector indexes.
// Each method returns a new builder with the updated configuration.
type VectorBuilder struct {
	name      string
	vectors   [][]float64
	metric    distance.Metric
	algorithm knn.Algorithm
	build     tree.BuildOptions
	extra     []Option
}

// Euclidean sets the distance metric to the L2 norm.
func (b VectorBuilder) Euclidean() VectorBuilder {
	b.metric = distance.MetricEuclidean
	return b
}

// Manhattan sets the distance metric to the L1 norm.
func (b VectorBuilder) Manhattan() VectorBuilder {
	b.metric = distance.MetricManhattan
	return b
}

// Chebyshev sets the distance metric to the L-infinity norm.
func (b VectorBuilder) Chebyshev() VectorBuilder {
	b.metric = distance.MetricChebyshev
	return b
}

// Angular sets the distance metric to the normalized angle between vectors.
func (b VectorBuilder) Angular() VectorBuilder {
	b.metric = distance.MetricAngular
	return b
}

// Metric sets the distance metric.
func (b VectorBuilder) Metric(m distance.Metric) VectorBuilder {
	b.metric = m
	return b
}

// Algorithm sets the k-NN strategy.
// Default: knn.DefaultAlgorithm.
func (b VectorBuilder) Algorithm(alg knn.Algorithm) VectorBuilder {
	b.algorithm = alg
	return b
}

// MaxDepth stops partitioning at the given depth. 0 means unlimited.
func (b VectorBuilder) MaxDepth(depth int) VectorBuilder {
	b.build.MaxDepth = depth
	return b
}

// MinCardinality makes clusters with at most n instances leaves.
func (b VectorBuilder) MinCardinality(n int) VectorBuilder {
	b.build.MinCardinality = n
	return b
}

// Seed sets the seed for deterministic tree construction.
func (b VectorBuilder) Seed(seed uint64) VectorBuilder {
	b.build.Seed = seed
	return b
}

// Logger sets the structured logger for operation tracing.
func (b VectorBuilder) Logger(l *Logger) VectorBuilder {
	b.extra = append(b.extra[:len(b.extra):len(b.extra)], WithLogger(l))
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b VectorBuilder) Metrics(mc MetricsCollector) VectorBuilder {
	b.extra = append(b.extra[:len(b.extra):len(b.extra)], WithMetricsCollector(mc))
	return b
}

// Options appends arbitrary options.
func (b VectorBuilder) Options(optFns ...Option) VectorBuilder {
	b.extra = append(b.extra[:len(b.extra):len(b.extra)], optFns...)
	return b
}

// Build checks the vectors and builds the index.
func (b VectorBuilder) Build(ctx context.Context) (*Index[[]float64], error) {
	data, err := dataset.NewFloat(b.name, b.vectors, b.metric)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithAlgorithm(b.algorithm),
		WithBuildOptions(
			tree.WithMaxDepth(b.build.MaxDepth),
			tree.WithMinCardinality(b.build.MinCardinality),
			tree.WithSeed(b.build.Seed),
		),
	}
	return New(ctx, data, append(opts, b.extra...)...)
}
