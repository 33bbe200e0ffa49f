package knn

import (
	"github.com/hupe1980/cakes/internal/queue"
	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// Linear computes the distance from query to every instance and keeps the k
// smallest. It is the ground truth for the other strategies.
func Linear[T any](t *tree.Tree[T], query T, k int) []model.Hit {
	if k <= 0 {
		return []model.Hit{}
	}
	data := t.Data()
	hits := queue.NewHitQueue(min(k, t.Cardinality()))
	for _, idx := range t.Indices() {
		hits.Push(model.Hit{Index: idx, Distance: data.Distance(query, data.Instance(idx))})
	}
	return hits.Drain()
}
