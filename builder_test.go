package cakes_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/distance"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/testutil"
)

func TestBuilder_Basic(t *testing.T) {
	ctx := context.Background()
	idx, err := cakes.Vectors("line", testutil.LineVectors(10)).Build(ctx)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(ctx, []float64{2.2}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Index)
}

func TestBuilder_FullOptions(t *testing.T) {
	ctx := context.Background()
	metrics := &cakes.BasicMetricsCollector{}
	vecs := testutil.NewRNG(8).UniformVectors(200, 3)

	idx, err := cakes.Vectors("points", vecs).
		Manhattan().
		Algorithm(knn.AlgorithmSieveV1).
		MaxDepth(4).
		MinCardinality(3).
		Seed(99).
		Logger(cakes.NoopLogger()).
		Metrics(metrics).
		Options(cakes.WithMaxConcurrency(2)).
		Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, knn.AlgorithmSieveV1, idx.Algorithm())
	assert.LessOrEqual(t, idx.Tree().Depth(), 4)
	assert.Equal(t, uint64(99), idx.Tree().Params().Seed)
	assert.Equal(t, int64(1), metrics.GetStats().BuildCount)

	q := []float64{0.5, 0.5, 0.5}
	hits, err := idx.Search(ctx, q, 6)
	require.NoError(t, err)
	want := testutil.ExactKNN(dataset.New("l1", vecs, distance.Manhattan), q, 6)
	testutil.AssertEquivalentHits(t, want, hits)
}

func TestBuilder_Metrics(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float64{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

	for _, b := range []cakes.VectorBuilder{
		cakes.Vectors("v", vecs).Euclidean(),
		cakes.Vectors("v", vecs).Chebyshev(),
		cakes.Vectors("v", vecs).Angular(),
		cakes.Vectors("v", vecs).Metric(distance.MetricManhattan),
	} {
		idx, err := b.Build(ctx)
		require.NoError(t, err)
		hits, err := idx.Search(ctx, []float64{2, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, hits[0].Index)
	}
}

func TestBuilder_Immutable(t *testing.T) {
	ctx := context.Background()
	base := cakes.Vectors("line", testutil.LineVectors(32))
	shallow := base.MaxDepth(2)

	deep, err := base.Build(ctx)
	require.NoError(t, err)
	flat, err := shallow.Build(ctx)
	require.NoError(t, err)

	assert.Greater(t, deep.Tree().Depth(), 2)
	assert.Equal(t, 2, flat.Tree().Depth())
}

func TestBuilder_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := cakes.Vectors("ragged", [][]float64{{1, 2}, {3}}).Build(ctx)
	var dm *dataset.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = cakes.Vectors("empty", nil).Build(ctx)
	assert.ErrorIs(t, err, cakes.ErrEmptyDataset)

	_, err = cakes.Vectors("line", testutil.LineVectors(3)).Metric(distance.Metric(42)).Build(ctx)
	assert.Error(t, err)
}
