package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/model"
)

// searchResult is one line of search output.
type searchResult struct {
	Query int         `json:"query"`
	Hits  []resultHit `json:"hits"`
}

type resultHit struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

type searchFlags struct {
	queries string
	output  string
}

func newSearchCommand(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Answer k-NN queries against a saved tree",
		Long: `Search loads a tree written by build, reattaches it to the dataset and
answers every query in the query CSV file. Results are written as one JSON
object per query, hits ordered by distance and then by index.

Example:
  cakes search --csv points.csv --tree points.tree --queries q.csv -k 5
  cakes search --csv points.csv --queries q.csv --algorithm sieve-v2 -o hits.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			return a.runSearch(cmd, f)
		},
	}

	a.addDataFlags(cmd)
	s := &a.cfg.Search
	cmd.Flags().StringVar(&a.cfg.Tree.Path, "tree", a.cfg.Tree.Path, "Tree file written by build")
	cmd.Flags().StringVar(&f.queries, "queries", "", "CSV file with one query vector per row")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().IntVarP(&s.K, "k", "k", s.K, "Number of neighbors")
	cmd.Flags().Var(textFlag(&s.Algorithm), "algorithm", "Search algorithm (linear, repeated-rnn, sieve-v1, sieve-v2, expanding-threshold)")
	cmd.Flags().IntVar(&s.MaxConcurrency, "max-concurrency", s.MaxConcurrency, "Concurrent searches (0 = GOMAXPROCS)")
	cmd.Flags().Float64Var(&s.QueriesPerSecond, "qps", s.QueriesPerSecond, "Query rate limit (0 = unlimited)")
	cmd.Flags().IntVar(&s.Burst, "burst", s.Burst, "Query rate burst")
	_ = cmd.MarkFlagRequired("queries")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, f searchFlags) (err error) {
	ctx := cmd.Context()
	logger := a.logger(cmd.ErrOrStderr())

	data, err := openDataset(ctx, a.cfg.Data)
	if err != nil {
		return err
	}
	queries, err := readCSV(f.queries, false)
	if err != nil {
		return fmt.Errorf("failed to read queries: %w", err)
	}

	idx, err := cakes.LoadFile(ctx, a.cfg.Tree.Path, data, a.indexOptions(logger)...)
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := idx.BatchSearch(ctx, queries, a.cfg.Search.K)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, cerr := os.Create(f.output)
		if cerr != nil {
			return fmt.Errorf("failed to create output: %w", cerr)
		}
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
		out = file
	}

	return writeResults(out, results)
}

// writeResults writes one JSON line per query.
func writeResults(w io.Writer, results [][]model.Hit) error {
	bw := bufio.NewWriter(w)
	enc := gojson.NewEncoder(bw)
	for q, hits := range results {
		line := searchResult{Query: q, Hits: make([]resultHit, len(hits))}
		for i, h := range hits {
			line.Hits[i] = resultHit{Index: h.Index, Distance: h.Distance}
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write result %d: %w", q, err)
		}
	}
	return bw.Flush()
}
