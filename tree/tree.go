package tree

import (
	"iter"

	"github.com/hupe1980/cakes/dataset"
)

// Tree is an immutable metric tree over a Dataset.
type Tree[T any] struct {
	data      dataset.Dataset[T]
	root      *Cluster
	indices   []int // tree position -> dataset index
	positions []int // dataset index -> tree position
	depth     int
	clusters  int
	params    Params
}

// Params records the construction parameters of a tree.
type Params struct {
	MaxDepth        int    `json:"max_depth"`
	MinCardinality  int    `json:"min_cardinality"`
	SampleThreshold int    `json:"sample_threshold"`
	Seed            uint64 `json:"seed"`
}

func newTree[T any](data dataset.Dataset[T], root *Cluster, indices []int, params Params) *Tree[T] {
	t := &Tree[T]{
		data:      data,
		root:      root,
		indices:   indices,
		positions: make([]int, len(indices)),
		params:    params,
	}
	for pos, idx := range indices {
		t.positions[idx] = pos
	}
	for c := range t.Clusters() {
		t.clusters++
		if c.depth > t.depth {
			t.depth = c.depth
		}
	}
	return t
}

// Root returns the root cluster, which owns every instance.
func (t *Tree[T]) Root() *Cluster { return t.root }

// Radius returns the radius of the root cluster.
func (t *Tree[T]) Radius() float64 { return t.root.radius }

// Data returns the indexed dataset.
func (t *Tree[T]) Data() dataset.Dataset[T] { return t.data }

// Cardinality returns the number of indexed instances.
func (t *Tree[T]) Cardinality() int { return len(t.indices) }

// Indices returns the index permutation: position i holds the dataset index
// of the i-th instance in tree order. The slice must be treated as read-only.
func (t *Tree[T]) Indices() []int { return t.indices }

// Instances returns the dataset indices owned by c. The slice aliases the
// tree's permutation and must be treated as read-only.
func (t *Tree[T]) Instances(c *Cluster) []int {
	return t.indices[c.offset : c.offset+c.cardinality]
}

// Contains reports whether the instance with the given dataset index is owned by c.
func (t *Tree[T]) Contains(c *Cluster, index int) bool {
	if index < 0 || index >= len(t.positions) {
		return false
	}
	pos := t.positions[index]
	return pos >= c.offset && pos < c.offset+c.cardinality
}

// Depth returns the depth of the deepest leaf.
func (t *Tree[T]) Depth() int { return t.depth }

// NumClusters returns the number of clusters, leaves included.
func (t *Tree[T]) NumClusters() int { return t.clusters }

// Params returns the parameters the tree was built with.
func (t *Tree[T]) Params() Params { return t.params }

// CenterDistance returns the distance from query to the center of c.
func (t *Tree[T]) CenterDistance(query T, c *Cluster) float64 {
	return t.data.Distance(query, t.data.Instance(c.center))
}

// Clusters iterates over all clusters in pre-order (parent, left, right).
func (t *Tree[T]) Clusters() iter.Seq[*Cluster] {
	return func(yield func(*Cluster) bool) {
		walk(t.root, yield)
	}
}

// Leaves iterates over the leaf clusters from left to right.
func (t *Tree[T]) Leaves() iter.Seq[*Cluster] {
	return func(yield func(*Cluster) bool) {
		walk(t.root, func(c *Cluster) bool {
			if !c.IsLeaf() {
				return true
			}
			return yield(c)
		})
	}
}

func walk(c *Cluster, yield func(*Cluster) bool) bool {
	if c == nil {
		return true
	}
	if !yield(c) {
		return false
	}
	return walk(c.left, yield) && walk(c.right, yield)
}
