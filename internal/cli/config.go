package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/codec"
	"github.com/hupe1980/cakes/distance"
	"github.com/hupe1980/cakes/knn"
)

// Config is the YAML configuration shared by all commands.
// Flags given on the command line override values read from the file.
type Config struct {
	LogLevel  slog.Level   `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"` // "text" or "json"
	Data      DataConfig   `yaml:"data"`
	Tree      TreeConfig   `yaml:"tree"`
	Search    SearchConfig `yaml:"search"`
	Bench     BenchConfig  `yaml:"bench"`
}

// DataConfig selects the dataset. Exactly one of CSV and SQLite must be set.
type DataConfig struct {
	Name      string          `yaml:"name"`
	Metric    distance.Metric `yaml:"metric"`
	CSV       string          `yaml:"csv"`
	CSVHeader bool            `yaml:"csv_header"`
	SQLite    string          `yaml:"sqlite"`
	Table     string          `yaml:"table"`
	Column    string          `yaml:"column"`
}

// TreeConfig controls tree construction and the tree file.
type TreeConfig struct {
	Path           string            `yaml:"path"`
	MaxDepth       int               `yaml:"max_depth"`
	MinCardinality int               `yaml:"min_cardinality"`
	Seed           uint64            `yaml:"seed"`
	Codec          string            `yaml:"codec"`
	Compression    cakes.Compression `yaml:"compression"`
}

// SearchConfig controls k-NN queries.
type SearchConfig struct {
	Algorithm        knn.Algorithm `yaml:"algorithm"`
	K                int           `yaml:"k"`
	MaxConcurrency   int           `yaml:"max_concurrency"` // 0 means GOMAXPROCS
	QueriesPerSecond float64       `yaml:"queries_per_second"`
	Burst            int           `yaml:"burst"`
}

// BenchConfig controls the bench command when no query file is given.
type BenchConfig struct {
	Queries int    `yaml:"queries"` // sampled from the dataset
	Seed    uint64 `yaml:"seed"`
}

// DefaultConfig returns a configuration that builds a zstd compressed tree
// over a Euclidean CSV dataset.
func DefaultConfig() Config {
	return Config{
		LogLevel:  slog.LevelInfo,
		LogFormat: "text",
		Data: DataConfig{
			Metric: distance.MetricEuclidean,
			Table:  "vectors",
			Column: "embedding",
		},
		Tree: TreeConfig{
			Path:           "cakes.tree",
			MinCardinality: 1,
			Seed:           42,
			Codec:          codec.Default.Name(),
			Compression:    cakes.CompressionZSTD,
		},
		Search: SearchConfig{
			Algorithm: knn.DefaultAlgorithm,
			K:         10,
		},
		Bench: BenchConfig{
			Queries: 100,
			Seed:    7,
		},
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
// An empty path returns DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := decodeConfigFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// decodeConfigFile decodes path into cfg. Keys absent from the file keep
// their current values.
func decodeConfigFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that the decoders cannot.
func (c Config) Validate() error {
	var errs []error
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Data.CSV != "" && c.Data.SQLite != "" {
		errs = append(errs, errors.New("data: csv and sqlite are mutually exclusive"))
	}
	if _, ok := codec.ByName(c.Tree.Codec); !ok {
		errs = append(errs, fmt.Errorf("tree: unknown codec %q", c.Tree.Codec))
	}
	if c.Tree.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("tree: max_depth must be >= 0, got %d", c.Tree.MaxDepth))
	}
	if c.Search.K <= 0 {
		errs = append(errs, fmt.Errorf("search: k must be > 0, got %d", c.Search.K))
	}
	if c.Search.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("search: max_concurrency must be >= 0, got %d", c.Search.MaxConcurrency))
	}
	if c.Bench.Queries <= 0 {
		errs = append(errs, fmt.Errorf("bench: queries must be > 0, got %d", c.Bench.Queries))
	}
	return errors.Join(errs...)
}
