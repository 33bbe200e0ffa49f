package tree

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/testutil"
)

func TestBuildEmpty(t *testing.T) {
	_, err := Build(context.Background(), testutil.Euclidean("empty", nil))
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestBuildSingleton(t *testing.T) {
	tr, err := Build(context.Background(), testutil.Euclidean("one", [][]float64{{1, 2}}))
	require.NoError(t, err)

	root := tr.Root()
	assert.True(t, root.IsLeaf())
	assert.Equal(t, 0, root.Center())
	assert.Equal(t, 0.0, root.Radius())
	assert.Equal(t, 1, tr.NumClusters())
	assert.Equal(t, 0, tr.Depth())
}

func TestBuildLine(t *testing.T) {
	data := testutil.Euclidean("line", testutil.LineVectors(10))

	tr, err := Build(context.Background(), data)
	require.NoError(t, err)
	require.NoError(t, Validate(tr))

	root := tr.Root()
	assert.Equal(t, 10, root.Cardinality())
	assert.Equal(t, 0, root.Depth())
	assert.False(t, root.IsLeaf())

	// Every leaf holds a single point because all points are distinct.
	leaves := 0
	for leaf := range tr.Leaves() {
		leaves++
		assert.Equal(t, 1, leaf.Cardinality())
		assert.Equal(t, 0.0, leaf.Radius())
	}
	assert.Equal(t, 10, leaves)
	assert.Equal(t, 19, tr.NumClusters())

	indices := slices.Clone(tr.Indices())
	slices.Sort(indices)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, indices)
}

func TestBuildDuplicates(t *testing.T) {
	vecs := [][]float64{{1}, {1}, {1}, {2}, {2}}
	tr, err := Build(context.Background(), testutil.Euclidean("dups", vecs))
	require.NoError(t, err)
	require.NoError(t, Validate(tr))

	for leaf := range tr.Leaves() {
		assert.Equal(t, 0.0, leaf.Radius(), "identical instances end in one leaf")
	}
	assert.Equal(t, 3, tr.NumClusters())
}

func TestBuildRandom(t *testing.T) {
	rng := testutil.NewRNG(7)
	data := testutil.Euclidean("random", rng.ClusteredVectors(2000, 6, 8, 0.05))

	tr, err := Build(context.Background(), data, WithSampleThreshold(50))
	require.NoError(t, err)
	require.NoError(t, Validate(tr))

	for c := range tr.Clusters() {
		assert.GreaterOrEqual(t, c.LFD(), 0.0)
		if l, r, ok := c.Children(); ok {
			assert.True(t, c.IsAncestorOf(l))
			assert.True(t, c.IsAncestorOf(r))
			assert.False(t, l.IsAncestorOf(r))
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	rng := testutil.NewRNG(11)
	data := testutil.Euclidean("random", rng.UniformVectors(1500, 4))

	a, err := Build(context.Background(), data, WithParallelism(1), WithSampleThreshold(20))
	require.NoError(t, err)
	b, err := Build(context.Background(), data, WithParallelism(8), WithSampleThreshold(20))
	require.NoError(t, err)

	assert.Equal(t, a.Indices(), b.Indices())
	assert.Equal(t, summaries(a), summaries(b))
}

func TestBuildLimits(t *testing.T) {
	data := testutil.Euclidean("line", testutil.LineVectors(64))

	t.Run("MaxDepth", func(t *testing.T) {
		tr, err := Build(context.Background(), data, WithMaxDepth(3))
		require.NoError(t, err)
		require.NoError(t, Validate(tr))
		assert.Equal(t, 3, tr.Depth())
		assert.Equal(t, 3, tr.Params().MaxDepth)
	})

	t.Run("MinCardinality", func(t *testing.T) {
		tr, err := Build(context.Background(), data, WithMinCardinality(8))
		require.NoError(t, err)
		require.NoError(t, Validate(tr))
		for c := range tr.Clusters() {
			if !c.IsLeaf() {
				assert.Greater(t, c.Cardinality(), 8)
			}
		}
	})
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, testutil.Euclidean("line", testutil.LineVectors(100)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContains(t *testing.T) {
	tr, err := Build(context.Background(), testutil.Euclidean("line", testutil.LineVectors(16)))
	require.NoError(t, err)

	l, r, ok := tr.Root().Children()
	require.True(t, ok)
	for _, idx := range tr.Instances(l) {
		assert.True(t, tr.Contains(l, idx))
		assert.False(t, tr.Contains(r, idx))
		assert.True(t, tr.Contains(tr.Root(), idx))
	}
	assert.False(t, tr.Contains(tr.Root(), -1))
	assert.False(t, tr.Contains(tr.Root(), 16))
}

type summary struct {
	Offset, Cardinality, Center, Depth int
	Radius                             float64
}

func summaries[T any](tr *Tree[T]) []summary {
	var out []summary
	for c := range tr.Clusters() {
		out = append(out, summary{c.Offset(), c.Cardinality(), c.Center(), c.Depth(), c.Radius()})
	}
	return out
}
