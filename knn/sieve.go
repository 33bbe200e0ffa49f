package knn

import (
	"math"
	"slices"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// grain is a unit of the sieve's working set: a cluster whose distance to
// the query is only bounded, or an instance whose distance is exact.
type grain struct {
	cluster *tree.Cluster // nil for instance grains
	index   int           // dataset index of an instance grain
	dMin    float64
	dMax    float64
	weight  int
	// excluded lists the members of cluster already emitted as instance
	// grains. Always empty for SieveV1.
	excluded []int
}

func (g *grain) isInstance() bool { return g.cluster == nil }

func instanceGrain(index int, distance float64) grain {
	return grain{index: index, dMin: distance, dMax: distance, weight: 1}
}

// SieveRound records the state of one sieve round after pruning.
type SieveRound struct {
	Threshold float64 // certified cutoff computed this round
	Grains    int     // grains surviving the prune
	Weight    int     // total weight of the surviving grains
}

// SieveTrace records every round of a sieve search.
type SieveTrace struct {
	Rounds []SieveRound
}

// SieveV1 finds the k nearest neighbors by repeatedly pruning and
// subdividing a set of grains seeded with the root cluster.
//
// Each round computes the smallest threshold such that grains whose upper
// bound is within it weigh at least k, discards every grain whose lower bound
// exceeds it, and splits every remaining cluster grain into its children, or
// into instance grains at the leaves.
func SieveV1[T any](t *tree.Tree[T], query T, k int) []model.Hit {
	return sieve(t, query, k, false, nil)
}

// SieveV2 is SieveV1 with the center of every cluster split off as its own
// instance grain, since its distance is computed for the bounds anyway.
func SieveV2[T any](t *tree.Tree[T], query T, k int) []model.Hit {
	return sieve(t, query, k, true, nil)
}

// SieveV1WithTrace runs SieveV1 and records its rounds.
func SieveV1WithTrace[T any](t *tree.Tree[T], query T, k int) ([]model.Hit, SieveTrace) {
	var trace SieveTrace
	return sieve(t, query, k, false, &trace), trace
}

// SieveV2WithTrace runs SieveV2 and records its rounds.
func SieveV2WithTrace[T any](t *tree.Tree[T], query T, k int) ([]model.Hit, SieveTrace) {
	var trace SieveTrace
	return sieve(t, query, k, true, &trace), trace
}

func sieve[T any](t *tree.Tree[T], query T, k int, centers bool, trace *SieveTrace) []model.Hit {
	if k <= 0 {
		return []model.Hit{}
	}

	s := sifter[T]{t: t, query: query, centers: centers}
	root := t.Root()
	dc, dMin, dMax := t.Bounds(query, root)

	var grains []grain
	if centers {
		grains = append(grains, instanceGrain(root.Center(), dc))
		if root.Cardinality() > 1 {
			grains = append(grains, grain{
				cluster:  root,
				dMin:     dMin,
				dMax:     dMax,
				weight:   root.Cardinality() - 1,
				excluded: []int{root.Center()},
			})
		}
	} else {
		grains = append(grains, grain{cluster: root, dMin: dMin, dMax: dMax, weight: root.Cardinality()})
	}

	for hasClusters(grains) {
		threshold := weightedSelect(grains, k)

		next := make([]grain, 0, 2*len(grains))
		weight, survivors := 0, 0
		for i := range grains {
			g := &grains[i]
			if g.dMin > threshold {
				continue
			}
			survivors++
			weight += g.weight
			if g.isInstance() {
				next = append(next, *g)
				continue
			}
			next = s.subdivide(next, g)
		}
		grains = next

		if trace != nil {
			trace.Rounds = append(trace.Rounds, SieveRound{Threshold: threshold, Grains: survivors, Weight: weight})
		}
	}

	hits := make([]model.Hit, len(grains))
	for i, g := range grains {
		hits[i] = model.Hit{Index: g.index, Distance: g.dMin}
	}
	return model.SortAndTruncate(hits, k)
}

type sifter[T any] struct {
	t       *tree.Tree[T]
	query   T
	centers bool
}

// subdivide appends the grains that replace the cluster grain g.
func (s *sifter[T]) subdivide(out []grain, g *grain) []grain {
	left, right, ok := g.cluster.Children()
	if !ok {
		data := s.t.Data()
		for _, idx := range s.t.Instances(g.cluster) {
			if slices.Contains(g.excluded, idx) {
				continue
			}
			out = append(out, instanceGrain(idx, data.Distance(s.query, data.Instance(idx))))
		}
		return out
	}

	for _, child := range []*tree.Cluster{left, right} {
		dc, dMin, dMax := s.t.Bounds(s.query, child)
		// A child lies inside its parent, so the parent's bounds still hold.
		dMin, dMax = max(dMin, g.dMin), min(dMax, g.dMax)

		var excluded []int
		for _, idx := range g.excluded {
			if s.t.Contains(child, idx) {
				excluded = append(excluded, idx)
			}
		}
		if s.centers && !slices.Contains(excluded, child.Center()) {
			out = append(out, instanceGrain(child.Center(), dc))
			excluded = append(excluded, child.Center())
		}

		if w := child.Cardinality() - len(excluded); w > 0 {
			out = append(out, grain{cluster: child, dMin: dMin, dMax: dMax, weight: w, excluded: excluded})
		}
	}
	return out
}

func hasClusters(grains []grain) bool {
	for i := range grains {
		if !grains[i].isInstance() {
			return true
		}
	}
	return false
}

// weightedSelect returns the smallest upper bound θ such that the grains with
// dMax <= θ weigh at least k in total, or +Inf when all grains together weigh
// less than k. It uses quickselect with three-way partitioning.
func weightedSelect(grains []grain, k int) float64 {
	type item struct {
		value  float64
		weight int
	}
	items := make([]item, len(grains))
	total := 0
	for i := range grains {
		items[i] = item{grains[i].dMax, grains[i].weight}
		total += grains[i].weight
	}
	if total < k {
		return math.Inf(1)
	}

	for {
		pivot := items[len(items)/2].value

		var less, equal, greater []item
		lessWeight, equalWeight := 0, 0
		for _, it := range items {
			switch {
			case it.value < pivot:
				less = append(less, it)
				lessWeight += it.weight
			case it.value > pivot:
				greater = append(greater, it)
			default:
				equal = append(equal, it)
				equalWeight += it.weight
			}
		}

		switch {
		case k <= lessWeight:
			items = less
		case k <= lessWeight+equalWeight:
			return pivot
		default:
			k -= lessWeight + equalWeight
			items = greater
		}
	}
}
