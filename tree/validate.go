package tree

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// radiusTolerance absorbs rounding when distances are recomputed.
const radiusTolerance = 1e-9

// ErrInvalid describes a violated tree invariant.
type ErrInvalid struct {
	Cluster string // Cluster that violates the invariant
	Reason  string // Human-readable description
}

// Error returns the error message for an invalid tree.
func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("invalid tree at %s: %s", e.Cluster, e.Reason)
}

// Validate checks the invariants every search relies on:
//   - the root owns every instance exactly once;
//   - each center is one of its cluster's instances;
//   - no instance lies farther from its cluster's center than the radius;
//   - the children of an internal cluster partition it (no overlap, no omission).
//
// It computes one distance per instance per level and is meant for tests and
// for checking trees loaded from untrusted files. Read already rejects
// structural damage; Validate additionally recomputes every radius.
func Validate[T any](t *Tree[T]) error {
	if t.root.cardinality != t.data.Cardinality() || t.root.offset != 0 {
		return &ErrInvalid{Cluster: t.root.String(), Reason: fmt.Sprintf("root owns %d of %d instances", t.root.cardinality, t.data.Cardinality())}
	}

	for c := range t.Clusters() {
		members := bitmapOf(t.Instances(c))
		if members.GetCardinality() != uint64(c.cardinality) {
			return &ErrInvalid{Cluster: c.String(), Reason: "duplicate instances"}
		}
		if !members.Contains(uint32(c.center)) {
			return &ErrInvalid{Cluster: c.String(), Reason: fmt.Sprintf("center %d is not a member", c.center)}
		}

		center := t.data.Instance(c.center)
		for _, idx := range t.Instances(c) {
			if d := t.data.Distance(center, t.data.Instance(idx)); d > c.radius+radiusTolerance*max(1, c.radius) {
				return &ErrInvalid{Cluster: c.String(), Reason: fmt.Sprintf("instance %d at %g exceeds radius %g", idx, d, c.radius)}
			}
		}

		left, right, ok := c.Children()
		if !ok {
			continue
		}
		if left.depth != c.depth+1 || right.depth != c.depth+1 {
			return &ErrInvalid{Cluster: c.String(), Reason: "child depth is not parent depth + 1"}
		}
		lm, rm := bitmapOf(t.Instances(left)), bitmapOf(t.Instances(right))
		if roaring.And(lm, rm).GetCardinality() != 0 {
			return &ErrInvalid{Cluster: c.String(), Reason: "children overlap"}
		}
		if !roaring.Or(lm, rm).Equals(members) {
			return &ErrInvalid{Cluster: c.String(), Reason: "children do not cover the parent"}
		}
	}
	return nil
}

func bitmapOf(indices []int) *roaring.Bitmap {
	bm := roaring.New()
	for _, idx := range indices {
		bm.Add(uint32(idx))
	}
	return bm
}
