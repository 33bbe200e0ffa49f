package cakes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/codec"
	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/distance"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/rnn"
	"github.com/hupe1980/cakes/testutil"
	"github.com/hupe1980/cakes/tree"
)

func newIndex(t *testing.T, n, dim int, opts ...cakes.Option) (*cakes.Index[[]float64], *dataset.Vectors[[]float64], *testutil.RNG) {
	t.Helper()
	rng := testutil.NewRNG(uint64(n*31 + dim))
	data, err := dataset.NewFloat("test", rng.ClusteredVectors(n, dim, 4, 0.1), distance.MetricEuclidean)
	require.NoError(t, err)

	idx, err := cakes.New(context.Background(), data, opts...)
	require.NoError(t, err)
	return idx, data, rng
}

func TestIndex(t *testing.T) {
	ctx := context.Background()
	idx, data, rng := newIndex(t, 500, 4)
	assert.Equal(t, 500, idx.Cardinality())
	assert.Equal(t, knn.DefaultAlgorithm, idx.Algorithm())

	t.Run("Search", func(t *testing.T) {
		for _, q := range rng.UniformVectors(5, 4) {
			hits, err := idx.Search(ctx, q, 10)
			require.NoError(t, err)
			testutil.AssertEquivalentHits(t, testutil.ExactKNN(data, q, 10), hits)
		}
	})

	t.Run("SearchWith", func(t *testing.T) {
		q := rng.UniformVectors(1, 4)[0]
		want := testutil.ExactKNN(data, q, 7)
		for _, alg := range knn.Algorithms() {
			hits, err := idx.SearchWith(ctx, alg, q, 7)
			require.NoError(t, err)
			testutil.AssertEquivalentHits(t, want, hits)
		}
		_, err := idx.SearchWith(ctx, knn.Algorithm(42), q, 7)
		var invalid *cakes.ErrInvalidAlgorithm
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("DegenerateK", func(t *testing.T) {
		q := []float64{0, 0, 0, 0}
		hits, err := idx.Search(ctx, q, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)

		_, err = idx.Search(ctx, q, -1)
		assert.ErrorIs(t, err, cakes.ErrInvalidK)

		hits, err = idx.Search(ctx, q, 1000)
		require.NoError(t, err)
		assert.Len(t, hits, 500)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := idx.Search(ctx, []float64{1, 2}, 3)
		var dm *cakes.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 2, dm.Actual)

		_, err = idx.RangeSearch(ctx, []float64{1}, 1)
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("NonFiniteQuery", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		for _, alg := range knn.Algorithms() {
			_, err := idx.SearchWith(ctx, alg, []float64{0, math.NaN(), 0, 0}, 3)
			assert.ErrorIs(t, err, cakes.ErrInvalidQuery, alg.String())
			var nf *dataset.ErrNonFiniteQuery
			require.ErrorAs(t, err, &nf, alg.String())
			assert.Equal(t, 1, nf.Component)
		}

		_, err := idx.RangeSearch(ctx, []float64{math.Inf(1), 0, 0, 0}, 1)
		assert.ErrorIs(t, err, cakes.ErrInvalidQuery)
		require.NoError(t, ctx.Err())
	})

	t.Run("RangeSearch", func(t *testing.T) {
		q := rng.UniformVectors(1, 4)[0]
		hits, err := idx.RangeSearch(ctx, q, 0.3)
		require.NoError(t, err)
		assert.Equal(t, testutil.ExactRange(data, q, 0.3), hits)

		_, err = idx.RangeSearch(ctx, q, -0.1)
		assert.ErrorIs(t, err, cakes.ErrInvalidRadius)
		_, err = idx.RangeSearch(ctx, q, math.NaN())
		assert.ErrorIs(t, err, cakes.ErrInvalidRadius)
	})

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Search(cctx, []float64{0, 0, 0, 0}, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBatchSearch(t *testing.T) {
	ctx := context.Background()
	idx, _, rng := newIndex(t, 800, 3, cakes.WithMaxConcurrency(4), cakes.WithAlgorithm(knn.AlgorithmExpandingThreshold))
	queries := rng.UniformVectors(40, 3)

	results, err := idx.BatchSearch(ctx, queries, 5)
	require.NoError(t, err)
	require.Len(t, results, len(queries))

	for i, q := range queries {
		want, err := idx.Search(ctx, q, 5)
		require.NoError(t, err)
		assert.Equal(t, want, results[i], "query %d", i)
	}

	_, err = idx.BatchSearch(ctx, queries, -2)
	assert.ErrorIs(t, err, cakes.ErrInvalidK)

	bad := append([][]float64{{1}}, queries...)
	_, err = idx.BatchSearch(ctx, bad, 5)
	var dm *cakes.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	empty, err := idx.BatchSearch(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	_, err := cakes.New(ctx, testutil.Euclidean("empty", nil))
	assert.ErrorIs(t, err, cakes.ErrEmptyDataset)

	_, err = cakes.New(ctx, testutil.Euclidean("line", testutil.LineVectors(4)), cakes.WithAlgorithm(knn.Algorithm(-1)))
	var invalid *cakes.ErrInvalidAlgorithm
	assert.ErrorAs(t, err, &invalid)

	_, err = cakes.New(ctx, testutil.Euclidean("line", testutil.LineVectors(4)), cakes.WithRangeAlgorithm(rnn.Algorithm(7)))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.cakes")

	for _, tc := range []struct {
		name        string
		codec       codec.Codec
		compression cakes.Compression
	}{
		{"GoJSON/ZSTD", codec.GoJSON{}, cakes.CompressionZSTD},
		{"JSON/LZ4", codec.JSON{}, cakes.CompressionLZ4},
		{"GoJSON/None", nil, cakes.CompressionNone},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx, data, rng := newIndex(t, 300, 3, cakes.WithCodec(tc.codec), cakes.WithCompression(tc.compression), cakes.WithIOLimit(1<<24))
			require.NoError(t, idx.SaveFile(ctx, path))

			loaded, err := cakes.LoadFile(ctx, path, data)
			require.NoError(t, err)
			require.NoError(t, tree.Validate(loaded.Tree()))
			assert.Equal(t, idx.Tree().Indices(), loaded.Tree().Indices())

			q := rng.UniformVectors(1, 3)[0]
			want, err := idx.Search(ctx, q, 8)
			require.NoError(t, err)
			got, err := loaded.Search(ctx, q, 8)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("DatasetMismatch", func(t *testing.T) {
		idx, _, _ := newIndex(t, 50, 2)
		var buf bytes.Buffer
		require.NoError(t, idx.Save(ctx, &buf))

		_, err := cakes.Load(ctx, &buf, testutil.Euclidean("other", testutil.LineVectors(49)))
		assert.ErrorIs(t, err, cakes.ErrDatasetMismatch)
	})

	t.Run("Corrupt", func(t *testing.T) {
		_, err := cakes.Load(ctx, bytes.NewReader([]byte("not a tree")), testutil.Euclidean("line", testutil.LineVectors(3)))
		var corrupt *cakes.ErrCorrupt
		assert.ErrorAs(t, err, &corrupt)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := cakes.LoadFile(ctx, filepath.Join(t.TempDir(), "missing"), testutil.Euclidean("line", testutil.LineVectors(3)))
		assert.Error(t, err)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newIndex(t, 20, 2)

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err := idx.Search(ctx, []float64{0, 0}, 1)
	assert.ErrorIs(t, err, cakes.ErrClosed)
	_, err = idx.BatchSearch(ctx, [][]float64{{0, 0}}, 1)
	assert.ErrorIs(t, err, cakes.ErrClosed)
	_, err = idx.RangeSearch(ctx, []float64{0, 0}, 1)
	assert.ErrorIs(t, err, cakes.ErrClosed)
	assert.ErrorIs(t, idx.Save(ctx, &bytes.Buffer{}), cakes.ErrClosed)
}

func TestMetricsAndLogging(t *testing.T) {
	ctx := context.Background()
	metrics := &cakes.BasicMetricsCollector{}
	var logs bytes.Buffer
	logger := cakes.NewLogger(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	idx, _, _ := newIndex(t, 100, 2, cakes.WithMetricsCollector(metrics), cakes.WithLogger(logger))

	_, err := idx.Search(ctx, []float64{0, 0}, 3)
	require.NoError(t, err)
	_, err = idx.Search(ctx, []float64{0, 0}, -1)
	require.Error(t, err)
	_, err = idx.BatchSearch(ctx, [][]float64{{0, 0}, {1, 1}}, 2)
	require.NoError(t, err)
	_, err = idx.RangeSearch(ctx, []float64{0, 0}, 0.5)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(2), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchErrors)
	assert.Equal(t, int64(3), stats.SearchHits)
	assert.Equal(t, int64(1), stats.BatchSearchCount)
	assert.Equal(t, int64(2), stats.BatchSearchItems)
	assert.Equal(t, int64(0), stats.BatchSearchFailed)
	assert.Equal(t, int64(1), stats.RangeSearchCount)

	messages := map[string]int{}
	dec := json.NewDecoder(&logs)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		messages[entry["msg"].(string)]++
	}
	assert.Equal(t, 1, messages["tree built"])
	assert.Equal(t, 1, messages["build completed"])
	assert.Equal(t, 1, messages["search completed"])
	assert.Equal(t, 1, messages["search failed"])
	assert.Equal(t, 1, messages["batch search completed"])
	assert.Equal(t, 1, messages["range search completed"])
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := cakes.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})).
		WithK(5).
		WithAlgorithm(knn.AlgorithmSieveV1).
		WithDataset("points").
		WithCount(2)
	logger.Info("hello")

	out := logs.String()
	assert.Contains(t, out, "k=5")
	assert.Contains(t, out, "algorithm=sieve-v1")
	assert.Contains(t, out, "dataset=points")
	assert.Contains(t, out, "count=2")

	cakes.NoopLogger().Error("discarded")
}

func TestHitsAreSortedByIndexOnTies(t *testing.T) {
	ctx := context.Background()
	idx, err := cakes.New(ctx, testutil.Euclidean("line", testutil.LineVectors(10)), cakes.WithAlgorithm(knn.AlgorithmLinear))
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float64{4.5}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 3, 6}, model.Indices(hits))
}
