package cakes

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/resource"
	"github.com/hupe1980/cakes/rnn"
	"github.com/hupe1980/cakes/tree"
)

// ErrClosed is returned by operations on a closed Index.
var ErrClosed = errors.New("index is closed")

// Index answers exact nearest neighbor queries over a dataset.
//
// An Index is safe for concurrent use. Its tree is never modified after
// construction, so searches share it without locking.
type Index[T any] struct {
	tree      *tree.Tree[T]
	opts      options
	resources *resource.Controller
	closed    atomic.Bool
}

// New builds a tree over data and returns an Index searching it.
func New[T any](ctx context.Context, data dataset.Dataset[T], optFns ...Option) (*Index[T], error) {
	o := applyOptions(optFns)
	if err := validateOptions(o); err != nil {
		return nil, err
	}

	start := time.Now()
	buildOpts := append([]tree.BuildOption{tree.WithLogger(o.logger.Logger)}, o.buildOptions...)
	t, err := tree.Build(ctx, data, buildOpts...)
	o.metricsCollector.RecordBuild(data.Cardinality(), time.Since(start), err)
	if err != nil {
		err = translateError(err)
		o.logger.LogBuild(ctx, data.Name(), data.Cardinality(), 0, 0, err)
		return nil, err
	}
	o.logger.LogBuild(ctx, data.Name(), t.Cardinality(), t.NumClusters(), t.Depth(), nil)

	return newIndex(t, o), nil
}

// FromTree returns an Index searching an already built tree.
func FromTree[T any](t *tree.Tree[T], optFns ...Option) (*Index[T], error) {
	o := applyOptions(optFns)
	if err := validateOptions(o); err != nil {
		return nil, err
	}
	return newIndex(t, o), nil
}

func newIndex[T any](t *tree.Tree[T], o options) *Index[T] {
	return &Index[T]{
		tree:      t,
		opts:      o,
		resources: resource.NewController(o.resources),
	}
}

func validateOptions(o options) error {
	if !o.algorithm.Valid() {
		return &ErrInvalidAlgorithm{Algorithm: o.algorithm}
	}
	if o.rangeAlgorithm != rnn.Linear && o.rangeAlgorithm != rnn.Clustered {
		return errors.New("invalid range algorithm: " + o.rangeAlgorithm.String())
	}
	return nil
}

// Tree returns the searched tree.
func (ix *Index[T]) Tree() *tree.Tree[T] { return ix.tree }

// Algorithm returns the configured k-NN strategy.
func (ix *Index[T]) Algorithm() knn.Algorithm { return ix.opts.algorithm }

// Cardinality returns the number of indexed instances.
func (ix *Index[T]) Cardinality() int { return ix.tree.Cardinality() }

// Search returns the k nearest neighbors of query ordered by (Distance, Index).
// k == 0 yields no hits and k above the cardinality yields every instance.
func (ix *Index[T]) Search(ctx context.Context, query T, k int) ([]model.Hit, error) {
	return ix.SearchWith(ctx, ix.opts.algorithm, query, k)
}

// SearchWith is Search with an explicit strategy.
func (ix *Index[T]) SearchWith(ctx context.Context, alg knn.Algorithm, query T, k int) ([]model.Hit, error) {
	start := time.Now()
	hits, err := ix.search(ctx, alg, query, k)
	ix.opts.metricsCollector.RecordSearch(alg, k, len(hits), time.Since(start), err)
	ix.opts.logger.LogSearch(ctx, alg, k, len(hits), err)
	return hits, err
}

func (ix *Index[T]) search(ctx context.Context, alg knn.Algorithm, query T, k int) ([]model.Hit, error) {
	if err := ix.check(ctx); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, ErrInvalidK
	}
	if !alg.Valid() {
		return nil, &ErrInvalidAlgorithm{Algorithm: alg}
	}
	if err := ix.validateQuery(query); err != nil {
		return nil, err
	}

	if err := ix.resources.AcquireSearch(ctx); err != nil {
		return nil, err
	}
	defer ix.resources.ReleaseSearch()

	return knn.Search(alg, ix.tree, query, k), nil
}

// BatchSearch runs Search for every query concurrently. Result i belongs to
// queries[i]. The first failing query cancels the rest.
func (ix *Index[T]) BatchSearch(ctx context.Context, queries []T, k int) ([][]model.Hit, error) {
	start := time.Now()
	results := make([][]model.Hit, len(queries))
	var failed atomic.Int64

	err := func() error {
		if err := ix.check(ctx); err != nil {
			return err
		}
		if k < 0 {
			return ErrInvalidK
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(int(ix.resources.Config().MaxConcurrentSearches))
		for i, q := range queries {
			g.Go(func() error {
				hits, err := ix.search(gctx, ix.opts.algorithm, q, k)
				if err != nil {
					failed.Add(1)
					return err
				}
				results[i] = hits
				return nil
			})
		}
		return g.Wait()
	}()

	ix.opts.metricsCollector.RecordBatchSearch(len(queries), int(failed.Load()), time.Since(start))
	ix.opts.logger.LogBatchSearch(ctx, len(queries), int(failed.Load()))
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RangeSearch returns every instance within radius of query ordered by
// (Distance, Index).
func (ix *Index[T]) RangeSearch(ctx context.Context, query T, radius float64) ([]model.Hit, error) {
	start := time.Now()
	hits, err := func() ([]model.Hit, error) {
		if err := ix.check(ctx); err != nil {
			return nil, err
		}
		if radius < 0 || math.IsNaN(radius) {
			return nil, ErrInvalidRadius
		}
		if err := ix.validateQuery(query); err != nil {
			return nil, err
		}
		if err := ix.resources.AcquireSearch(ctx); err != nil {
			return nil, err
		}
		defer ix.resources.ReleaseSearch()
		return rnn.Search(ix.opts.rangeAlgorithm, ix.tree, query, radius), nil
	}()

	ix.opts.metricsCollector.RecordRangeSearch(len(hits), time.Since(start), err)
	ix.opts.logger.LogRangeSearch(ctx, radius, len(hits), err)
	return hits, err
}

func (ix *Index[T]) validateQuery(query T) error {
	v, ok := ix.tree.Data().(dataset.QueryValidator[T])
	if !ok {
		return nil
	}
	return translateError(v.ValidateQuery(query))
}

func (ix *Index[T]) check(ctx context.Context) error {
	if ix.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}
