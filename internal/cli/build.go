package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/tree"
)

func newBuildCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a tree over a dataset and save it",
		Long: `Build partitions the dataset into a binary cluster tree and writes
the tree to a file. The dataset itself is not stored; search and bench
read it again from the same source.

Example:
  cakes build --csv points.csv --tree points.tree
  cakes build --sqlite vectors.db --table docs --column embedding --metric angular`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			return a.runBuild(cmd)
		},
	}

	a.addDataFlags(cmd)
	t := &a.cfg.Tree
	cmd.Flags().StringVar(&t.Path, "tree", t.Path, "Output tree file")
	cmd.Flags().IntVar(&t.MaxDepth, "max-depth", t.MaxDepth, "Maximum tree depth (0 = unlimited)")
	cmd.Flags().IntVar(&t.MinCardinality, "min-cardinality", t.MinCardinality, "Clusters this small become leaves")
	cmd.Flags().Uint64Var(&t.Seed, "seed", t.Seed, "Seed for center sampling")
	cmd.Flags().StringVar(&t.Codec, "codec", t.Codec, "Header codec (json or go-json)")
	cmd.Flags().Var(textFlag(&t.Compression), "compression", "Cluster table compression (none, lz4, zstd)")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := a.logger(cmd.ErrOrStderr())

	data, err := openDataset(ctx, a.cfg.Data)
	if err != nil {
		return err
	}

	start := time.Now()
	idx, err := cakes.New(ctx, data, a.indexOptions(logger)...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	defer idx.Close()

	if err := tree.Validate(idx.Tree()); err != nil {
		return fmt.Errorf("built tree is invalid: %w", err)
	}
	if err := idx.SaveFile(ctx, a.cfg.Tree.Path); err != nil {
		return fmt.Errorf("failed to save tree: %w", err)
	}

	t := idx.Tree()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset:   %s (%d instances, %s)\n", data.Name(), t.Cardinality(), a.cfg.Data.Metric)
	fmt.Fprintf(out, "Clusters:  %d\n", t.NumClusters())
	fmt.Fprintf(out, "Depth:     %d\n", t.Depth())
	fmt.Fprintf(out, "Radius:    %g\n", t.Radius())
	fmt.Fprintf(out, "Built in:  %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Saved to:  %s\n", a.cfg.Tree.Path)
	return nil
}
