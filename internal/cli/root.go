// Package cli implements the cakes command line tool.
package cli

import (
	"context"
	"encoding"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/codec"
	"github.com/hupe1980/cakes/tree"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	configPath string
	cfg        Config
}

// NewRootCommand returns the cakes command tree. Every call returns an
// independent tree, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "cakes",
		Short: "Exact k-nearest-neighbor search over metric trees",
		Long: `cakes builds a metric tree over a dataset and answers exact
k-nearest-neighbor queries with one of five search strategies.

Example usage:
  cakes build --csv points.csv --tree points.tree
  cakes search --csv points.csv --tree points.tree --queries q.csv -k 5
  cakes bench --csv points.csv -k 10 --num-queries 200`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().Var(textFlag(&a.cfg.LogLevel), "log-level", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "Log format (text or json)")

	rootCmd.AddCommand(
		newBuildCommand(a),
		newSearchCommand(a),
		newBenchCommand(a),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the config file over the defaults and then reapplies
// the flags the user set explicitly, so flags always win.
func (a *app) loadConfig(cmd *cobra.Command) error {
	changed := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			changed[f.Name] = f.Value.String()
		}
	})

	if err := decodeConfigFile(a.configPath, &a.cfg); err != nil {
		return err
	}
	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return a.cfg.Validate()
}

func (a *app) logger(w io.Writer) *cakes.Logger {
	opts := &slog.HandlerOptions{Level: a.cfg.LogLevel}
	if a.cfg.LogFormat == "json" {
		return cakes.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return cakes.NewLogger(slog.NewTextHandler(w, opts))
}

// indexOptions translates the config into Index options.
func (a *app) indexOptions(logger *cakes.Logger) []cakes.Option {
	c, _ := codec.ByName(a.cfg.Tree.Codec)

	opts := []cakes.Option{
		cakes.WithLogger(logger),
		cakes.WithAlgorithm(a.cfg.Search.Algorithm),
		cakes.WithCodec(c),
		cakes.WithCompression(a.cfg.Tree.Compression),
		cakes.WithBuildOptions(
			tree.WithMaxDepth(a.cfg.Tree.MaxDepth),
			tree.WithMinCardinality(a.cfg.Tree.MinCardinality),
			tree.WithSeed(a.cfg.Tree.Seed),
		),
	}
	if a.cfg.Search.MaxConcurrency > 0 {
		opts = append(opts, cakes.WithMaxConcurrency(a.cfg.Search.MaxConcurrency))
	}
	if a.cfg.Search.QueriesPerSecond > 0 {
		opts = append(opts, cakes.WithRateLimit(a.cfg.Search.QueriesPerSecond, a.cfg.Search.Burst))
	}
	return opts
}

// addDataFlags registers the dataset selection flags on cmd.
func (a *app) addDataFlags(cmd *cobra.Command) {
	d := &a.cfg.Data
	cmd.Flags().StringVar(&d.CSV, "csv", d.CSV, "CSV file with one vector per row")
	cmd.Flags().BoolVar(&d.CSVHeader, "csv-header", d.CSVHeader, "Skip the first CSV row")
	cmd.Flags().StringVar(&d.SQLite, "sqlite", d.SQLite, "SQLite database with float32 vector BLOBs")
	cmd.Flags().StringVar(&d.Table, "table", d.Table, "SQLite table")
	cmd.Flags().StringVar(&d.Column, "column", d.Column, "SQLite BLOB column")
	cmd.Flags().StringVar(&d.Name, "name", d.Name, "Dataset name recorded in the tree file (default: file name)")
	cmd.Flags().Var(textFlag(&d.Metric), "metric", "Distance metric (euclidean, manhattan, chebyshev, angular)")
}

// textVar is a config field with a text form, such as an algorithm or metric.
type textVar interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

// textFlag adapts a textVar to a flag value.
func textFlag(v textVar) pflag.Value { return textValue{v} }

type textValue struct{ v textVar }

func (t textValue) String() string {
	b, err := t.v.MarshalText()
	if err != nil {
		return ""
	}
	return string(b)
}

func (t textValue) Set(s string) error { return t.v.UnmarshalText([]byte(s)) }

func (t textValue) Type() string { return "string" }
