package knn

import (
	"math"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/rnn"
	"github.com/hupe1980/cakes/tree"
)

const (
	// lfdEpsilon keeps the growth exponent finite when the estimated local
	// fractal dimension is zero.
	lfdEpsilon = 1e-12
	// minGrowth is the smallest factor by which a converging radius grows.
	minGrowth = 1 + 1.0/16
	// maxGrowth caps the growth of the radius per iteration.
	maxGrowth = 2.0
)

// RepeatedRNN finds the k nearest neighbors by repeated range searches.
//
// The radius starts at the tree radius divided by the cardinality (or at the
// root's upper bound when that is zero) and doubles until a range search
// returns at least one hit. It then grows by a factor derived from the local
// fractal dimension of the hits, at most doubling per step, until the range
// holds min(k, n) hits. The hits are sorted and truncated to k.
//
// Distances that no finite radius can contain, such as NaN distances to a
// NaN query, drive the radius to infinity; the search then falls back to
// Linear.
func RepeatedRNN[T any](t *tree.Tree[T], query T, k int) []model.Hit {
	if k <= 0 {
		return []model.Hit{}
	}
	n := t.Cardinality()
	target := min(k, n)

	radius := t.Radius() / float64(n)
	if radius == 0 {
		_, _, radius = t.Bounds(query, t.Root())
	}

	hits := rnn.ClusteredSearch(t, query, radius)
	for len(hits) == 0 {
		radius *= 2
		if !finite(radius) {
			return Linear(t, query, k)
		}
		hits = rnn.ClusteredSearch(t, query, radius)
	}

	for len(hits) < target {
		radius *= growthFactor(hits, radius, target)
		if !finite(radius) {
			return Linear(t, query, k)
		}
		hits = rnn.ClusteredSearch(t, query, radius)
	}

	return model.SortAndTruncate(hits, k)
}

// growthFactor predicts how much radius must grow for hits to reach target,
// assuming the count grows as radius^lfd.
func growthFactor(hits []model.Hit, radius float64, target int) float64 {
	lfd := hitsLFD(hits, radius)
	factor := math.Pow(float64(target)/float64(len(hits)), 1/(lfd+lfdEpsilon))
	return min(max(factor, minGrowth), maxGrowth)
}

// hitsLFD estimates the local fractal dimension of the hits within radius as
// log2(count(<= radius) / count(<= radius/2)). It is 1 when no hit lies
// within radius/2.
func hitsLFD(hits []model.Hit, radius float64) float64 {
	half := radius / 2
	inner := 0
	for _, h := range hits {
		if h.Distance <= half {
			inner++
		}
	}
	if inner == 0 {
		return 1
	}
	return math.Log2(float64(len(hits)) / float64(inner))
}

func finite(r float64) bool {
	return !math.IsInf(r, 0) && !math.IsNaN(r)
}
