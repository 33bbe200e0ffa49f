package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hupe1980/cakes/dataset"
)

// openDataset loads the configured vectors and wraps them with the metric.
func openDataset(ctx context.Context, cfg DataConfig) (*dataset.Vectors[[]float64], error) {
	var (
		vectors [][]float64
		source  string
		err     error
	)

	switch {
	case cfg.CSV != "":
		source = cfg.CSV
		vectors, err = readCSV(cfg.CSV, cfg.CSVHeader)
	case cfg.SQLite != "":
		source = cfg.SQLite
		vectors, err = readSQLite(ctx, cfg.SQLite, cfg.Table, cfg.Column)
	default:
		return nil, errors.New("no dataset: set --csv or --sqlite")
	}
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", source)
	}

	name := cfg.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return dataset.NewFloat(name, vectors, cfg.Metric)
}

func readCSV(path string, header bool) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return dataset.LoadCSV(f, dataset.CSVOptions{Header: header})
}

func readSQLite(ctx context.Context, path, table, column string) ([][]float64, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return dataset.LoadSQLite(ctx, db, table, column)
}

// sampleQueries picks n dataset instances with a seeded shuffle. The
// instances are copied so callers may perturb them.
func sampleQueries(data *dataset.Vectors[[]float64], n int, seed uint64) [][]float64 {
	perm := rand.New(rand.NewPCG(seed, 0)).Perm(data.Cardinality())
	if n > len(perm) {
		n = len(perm)
	}

	queries := make([][]float64, n)
	for i := range queries {
		queries[i] = append([]float64(nil), data.Instance(perm[i])...)
	}
	return queries
}
