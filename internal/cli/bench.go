package cli

import (
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/model"
)

// benchRow summarizes one algorithm over all queries.
type benchRow struct {
	Algorithm knn.Algorithm
	Recall    float64
	Mean      time.Duration
	Total     time.Duration
}

type benchFlags struct {
	tree    string
	queries string
}

func newBenchCommand(a *app) *cobra.Command {
	var f benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare every search algorithm against a linear scan",
		Long: `Bench runs the same queries through every k-NN algorithm and reports
recall against the linear scan together with the mean latency. Every
algorithm is exact, so any recall below 1 indicates a bug.

Queries come from --queries or are sampled from the dataset.

Example:
  cakes bench --csv points.csv -k 10 --num-queries 200
  cakes bench --csv points.csv --tree points.tree --queries q.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			return a.runBench(cmd, f)
		},
	}

	a.addDataFlags(cmd)
	cmd.Flags().StringVar(&f.tree, "tree", "", "Load this tree instead of building one")
	cmd.Flags().StringVar(&f.queries, "queries", "", "CSV file with query vectors")
	cmd.Flags().IntVarP(&a.cfg.Search.K, "k", "k", a.cfg.Search.K, "Number of neighbors")
	cmd.Flags().IntVar(&a.cfg.Bench.Queries, "num-queries", a.cfg.Bench.Queries, "Queries sampled from the dataset")
	cmd.Flags().Uint64Var(&a.cfg.Bench.Seed, "query-seed", a.cfg.Bench.Seed, "Seed for query sampling")
	return cmd
}

func (a *app) runBench(cmd *cobra.Command, f benchFlags) error {
	ctx := cmd.Context()
	logger := a.logger(cmd.ErrOrStderr())

	data, err := openDataset(ctx, a.cfg.Data)
	if err != nil {
		return err
	}

	var queries [][]float64
	if f.queries != "" {
		if queries, err = readCSV(f.queries, false); err != nil {
			return fmt.Errorf("failed to read queries: %w", err)
		}
	} else {
		queries = sampleQueries(data, a.cfg.Bench.Queries, a.cfg.Bench.Seed)
	}

	var idx *cakes.Index[[]float64]
	if f.tree != "" {
		idx, err = cakes.LoadFile(ctx, f.tree, data, a.indexOptions(logger)...)
	} else {
		idx, err = cakes.New(ctx, data, a.indexOptions(logger)...)
	}
	if err != nil {
		return err
	}
	defer idx.Close()

	k := a.cfg.Search.K
	truth := make([][]model.Hit, len(queries))
	for i, q := range queries {
		if truth[i], err = idx.SearchWith(ctx, knn.AlgorithmLinear, q, k); err != nil {
			return err
		}
	}

	rows := make([]benchRow, 0, len(knn.Algorithms()))
	for _, alg := range knn.Algorithms() {
		row := benchRow{Algorithm: alg}
		var recall float64
		for i, q := range queries {
			start := time.Now()
			hits, err := idx.SearchWith(ctx, alg, q, k)
			row.Total += time.Since(start)
			if err != nil {
				return fmt.Errorf("%s: %w", alg, err)
			}
			recall += distanceRecall(truth[i], hits)
		}
		if len(queries) > 0 {
			row.Recall = recall / float64(len(queries))
			row.Mean = row.Total / time.Duration(len(queries))
		}
		rows = append(rows, row)
	}

	t := idx.Tree()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset: %s (%d instances, %d clusters, depth %d), %d queries, k=%d\n\n",
		data.Name(), t.Cardinality(), t.NumClusters(), t.Depth(), len(queries), k)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tRECALL\tMEAN\tSPEEDUP")
	linear := rows[0].Mean
	for _, r := range rows {
		speedup := 1.0
		if r.Mean > 0 {
			speedup = float64(linear) / float64(r.Mean)
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%s\t%.2fx\n", r.Algorithm, r.Recall, r.Mean, speedup)
	}
	return tw.Flush()
}

// distanceRecall is the fraction of ranks at which got matches the distance
// of want. Comparing distances rather than indices keeps ties at the k-th
// distance from counting as misses.
func distanceRecall(want, got []model.Hit) float64 {
	if len(want) == 0 {
		if len(got) == 0 {
			return 1
		}
		return 0
	}

	matched := 0
	for i := range min(len(want), len(got)) {
		if math.Abs(want[i].Distance-got[i].Distance) <= 1e-9*math.Max(1, want[i].Distance) {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}
