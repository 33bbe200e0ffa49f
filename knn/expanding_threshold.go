package knn

import (
	"github.com/hupe1980/cakes/internal/queue"
	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// ExpandingThreshold finds the k nearest neighbors by best-first branch and
// bound over two queues.
//
// Candidates are clusters ordered by their lower bound; hits are the k best
// instances seen so far with the worst on top. The search pops the closest
// candidate, replacing an internal cluster by its children and moving the
// instances of a leaf into hits, until no candidate remains or the closest
// candidate cannot beat the worst of k hits.
func ExpandingThreshold[T any](t *tree.Tree[T], query T, k int) []model.Hit {
	if k <= 0 {
		return []model.Hit{}
	}
	data := t.Data()

	candidates := queue.NewCandidateQueue(2 * (t.Depth() + 1))
	hits := queue.NewHitQueue(min(k, t.Cardinality()))

	root := t.Root()
	_, dMin, dMax := t.Bounds(query, root)
	candidates.Push(queue.Candidate{Cluster: root, DMin: dMin, DMax: dMax})

	for {
		top, ok := candidates.Peek()
		if !ok {
			break
		}
		if hits.Full() && top.DMin >= hits.Threshold() {
			break
		}
		candidates.Pop()

		if left, right, ok := top.Cluster.Children(); ok {
			for _, child := range []*tree.Cluster{left, right} {
				_, dMin, dMax := t.Bounds(query, child)
				candidates.Push(queue.Candidate{Cluster: child, DMin: dMin, DMax: dMax})
			}
			continue
		}

		for _, idx := range t.Instances(top.Cluster) {
			hits.Push(model.Hit{Index: idx, Distance: data.Distance(query, data.Instance(idx))})
		}
	}

	return hits.Drain()
}
