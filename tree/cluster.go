package tree

import "fmt"

// Cluster is a node of the metric tree.
//
// A cluster owns Indices()[Offset() : Offset()+Cardinality()] of its tree.
// Clusters are never mutated after the tree is built.
type Cluster struct {
	offset      int
	cardinality int
	center      int
	argRadial   int
	radius      float64
	lfd         float64
	depth       int
	left        *Cluster
	right       *Cluster
}

// Offset returns the position of the cluster's first instance in the tree's
// index permutation.
func (c *Cluster) Offset() int { return c.offset }

// Cardinality returns the number of instances owned by the cluster,
// including those of all descendants.
func (c *Cluster) Cardinality() int { return c.cardinality }

// Center returns the dataset index of the cluster's center. The center is
// always one of the cluster's own instances.
func (c *Cluster) Center() int { return c.center }

// ArgRadial returns the dataset index of the instance farthest from the center.
func (c *Cluster) ArgRadial() int { return c.argRadial }

// Radius returns the maximum distance from the center to any owned instance.
func (c *Cluster) Radius() float64 { return c.radius }

// LFD returns the local fractal dimension of the cluster, estimated at build
// time from the instance counts within the radius and half the radius.
func (c *Cluster) LFD() float64 { return c.lfd }

// Depth returns the distance from the root, which has depth 0.
func (c *Cluster) Depth() int { return c.depth }

// IsLeaf reports whether the cluster has no children.
func (c *Cluster) IsLeaf() bool { return c.left == nil }

// Children returns the two children of an internal cluster.
// ok is false for leaves.
func (c *Cluster) Children() (left, right *Cluster, ok bool) {
	if c.left == nil {
		return nil, nil, false
	}
	return c.left, c.right, true
}

// IsAncestorOf reports whether o lies in the subtree rooted at c.
// A cluster is its own ancestor.
func (c *Cluster) IsAncestorOf(o *Cluster) bool {
	return c.offset <= o.offset &&
		o.offset+o.cardinality <= c.offset+c.cardinality &&
		c.depth <= o.depth
}

// String returns a string representation of the Cluster.
func (c *Cluster) String() string {
	return fmt.Sprintf("Cluster(%d:%d@%d)", c.offset, c.cardinality, c.depth)
}
