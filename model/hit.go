package model

import (
	"cmp"
	"fmt"
	"slices"
)

// Hit is a dataset instance found by a search together with its distance to the query.
type Hit struct {
	// Index is the position of the instance in the dataset.
	Index int
	// Distance is the exact distance from the query to the instance.
	Distance float64
}

// String returns a string representation of the Hit.
func (h Hit) String() string {
	return fmt.Sprintf("Hit(%d:%g)", h.Index, h.Distance)
}

// Compare orders hits ascending by distance, then by index.
func Compare(a, b Hit) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Less reports whether a sorts before b.
func Less(a, b Hit) bool { return Compare(a, b) < 0 }

// Sort orders hits in place ascending by (Distance, Index).
func Sort(hits []Hit) {
	slices.SortFunc(hits, Compare)
}

// SortAndTruncate sorts hits and keeps at most k of them.
func SortAndTruncate(hits []Hit, k int) []Hit {
	Sort(hits)
	if k < 0 {
		k = 0
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Indices returns the dataset indices of hits, in order.
func Indices(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Index
	}
	return out
}

// Distances returns the distances of hits, in order.
func Distances(hits []Hit) []float64 {
	out := make([]float64, len(hits))
	for i, h := range hits {
		out[i] = h.Distance
	}
	return out
}
