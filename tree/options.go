package tree

import "log/slog"

// BuildOptions contains configuration options for Build.
type BuildOptions struct {
	// MaxDepth stops partitioning at this depth. 0 means unlimited.
	MaxDepth int

	// MinCardinality makes clusters with at most this many instances leaves.
	// Values below 1 are treated as 1.
	MinCardinality int

	// SampleThreshold bounds the cost of choosing centers: clusters larger
	// than this pick their center from a seeded random sample of
	// max(SampleThreshold, sqrt(cardinality)) instances.
	SampleThreshold int

	// Seed makes sampling reproducible. Trees built with the same seed over
	// the same dataset are identical regardless of Parallelism.
	Seed uint64

	// Parallelism bounds the number of subtrees grown concurrently.
	// 0 means runtime.GOMAXPROCS(0).
	Parallelism int

	// Logger receives build progress. nil disables logging.
	Logger *slog.Logger
}

// DefaultBuildOptions contains the default configuration options for Build.
var DefaultBuildOptions = BuildOptions{
	MaxDepth:        0,
	MinCardinality:  1,
	SampleThreshold: 100,
	Seed:            42,
}

// BuildOption configures Build.
type BuildOption func(*BuildOptions)

// WithMaxDepth limits the depth of the tree.
func WithMaxDepth(depth int) BuildOption {
	return func(o *BuildOptions) {
		o.MaxDepth = depth
	}
}

// WithMinCardinality sets the largest cluster size that is never split.
func WithMinCardinality(n int) BuildOption {
	return func(o *BuildOptions) {
		o.MinCardinality = n
	}
}

// WithSampleThreshold sets the cluster size above which centers are sampled.
func WithSampleThreshold(n int) BuildOption {
	return func(o *BuildOptions) {
		o.SampleThreshold = n
	}
}

// WithSeed sets the sampling seed.
func WithSeed(seed uint64) BuildOption {
	return func(o *BuildOptions) {
		o.Seed = seed
	}
}

// WithParallelism bounds the number of concurrently grown subtrees.
func WithParallelism(n int) BuildOption {
	return func(o *BuildOptions) {
		o.Parallelism = n
	}
}

// WithLogger configures structured logging for Build.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *BuildOptions) {
		o.Logger = logger
	}
}
