package cakes

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/cakes/codec"
	"github.com/hupe1980/cakes/internal/compress"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/resource"
	"github.com/hupe1980/cakes/rnn"
	"github.com/hupe1980/cakes/tree"
)

// Compression selects how the cluster table of a saved tree is compressed.
type Compression = compress.Type

const (
	// CompressionNone stores the cluster table raw.
	CompressionNone = compress.None
	// CompressionLZ4 favors speed.
	CompressionLZ4 = compress.LZ4
	// CompressionZSTD favors ratio.
	CompressionZSTD = compress.ZSTD
)

// ParseCompression returns the compression with the given name
// ("none", "lz4" or "zstd").
func ParseCompression(name string) (Compression, error) {
	return compress.ParseType(name)
}

type options struct {
	algorithm        knn.Algorithm
	rangeAlgorithm   rnn.Algorithm
	buildOptions     []tree.BuildOption
	codec            codec.Codec
	compression      Compression
	metricsCollector MetricsCollector
	logger           *Logger
	resources        resource.Config
}

// Option configures Index construction and loading.
type Option func(*options)

// WithAlgorithm selects the k-NN strategy used by Search and BatchSearch.
// Default: knn.DefaultAlgorithm.
func WithAlgorithm(alg knn.Algorithm) Option {
	return func(o *options) {
		o.algorithm = alg
	}
}

// WithRangeAlgorithm selects the strategy used by RangeSearch.
// Default: rnn.DefaultAlgorithm.
func WithRangeAlgorithm(alg rnn.Algorithm) Option {
	return func(o *options) {
		o.rangeAlgorithm = alg
	}
}

// WithBuildOptions configures tree construction.
//
// Example:
//
//	idx, _ := cakes.New(ctx, data, cakes.WithBuildOptions(
//	    tree.WithMaxDepth(32),
//	    tree.WithSeed(7),
//	))
func WithBuildOptions(optFns ...tree.BuildOption) Option {
	return func(o *options) {
		o.buildOptions = append(o.buildOptions, optFns...)
	}
}

// WithCodec configures the codec used for tree file headers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of saved trees.
// Default: CompressionZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMaxConcurrency bounds the number of searches running at once across
// all callers, including the workers of BatchSearch.
// Default: runtime.GOMAXPROCS(0).
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.resources.MaxConcurrentSearches = int64(n)
	}
}

// WithRateLimit limits the rate at which searches start.
// burst is the number of searches that may start at once; qps <= 0 disables
// the limit.
func WithRateLimit(qps float64, burst int) Option {
	return func(o *options) {
		o.resources.QueriesPerSecond = qps
		o.resources.Burst = burst
	}
}

// WithIOLimit limits the throughput of Save and Load in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cakes.BasicMetricsCollector{}
//	idx, _ := cakes.New(ctx, data, cakes.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := cakes.NewJSONLogger(slog.LevelInfo)
//	idx, _ := cakes.New(ctx, data, cakes.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		algorithm:        knn.DefaultAlgorithm,
		rangeAlgorithm:   rnn.DefaultAlgorithm,
		codec:            codec.Default,
		compression:      CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		resources: resource.Config{
			MaxConcurrentSearches: int64(runtime.GOMAXPROCS(0)),
		},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
