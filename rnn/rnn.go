package rnn

import (
	"fmt"
	"strings"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// Algorithm selects a range search strategy.
type Algorithm int

const (
	// Linear computes the distance to every instance.
	Linear Algorithm = iota
	// Clustered prunes the tree by cluster bounds.
	Clustered
)

// DefaultAlgorithm is the strategy used when none is configured.
const DefaultAlgorithm = Clustered

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case Linear:
		return "linear"
	case Clustered:
		return "clustered"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return Linear, nil
	case "clustered", "tree":
		return Clustered, nil
	default:
		return 0, fmt.Errorf("rnn: unknown algorithm %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	switch a {
	case Linear, Clustered:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("rnn: unknown algorithm %d", int(a))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Search returns every instance within radius of query, ordered by
// (Distance, Index). A negative radius yields no hits.
func Search[T any](alg Algorithm, t *tree.Tree[T], query T, radius float64) []model.Hit {
	var hits []model.Hit
	switch alg {
	case Linear:
		hits = LinearSearch(t, query, radius)
	case Clustered:
		hits = ClusteredSearch(t, query, radius)
	default:
		panic(fmt.Sprintf("rnn: unknown algorithm %d", int(alg)))
	}
	model.Sort(hits)
	return hits
}

// LinearSearch returns the unordered hits within radius of query by scanning
// every instance of t.
func LinearSearch[T any](t *tree.Tree[T], query T, radius float64) []model.Hit {
	if !(radius >= 0) {
		return nil
	}
	data := t.Data()
	var hits []model.Hit
	for _, idx := range t.Indices() {
		if d := data.Distance(query, data.Instance(idx)); d <= radius {
			hits = append(hits, model.Hit{Index: idx, Distance: d})
		}
	}
	return hits
}

// ClusteredSearch returns the unordered hits within radius of query.
//
// A cluster whose lower bound exceeds radius is skipped. A cluster whose
// upper bound is within radius contributes all of its instances without
// membership checks; their distances are still computed so that hits can be
// ordered. Other clusters are searched through their children, and leaves
// check each instance.
func ClusteredSearch[T any](t *tree.Tree[T], query T, radius float64) []model.Hit {
	if !(radius >= 0) {
		return nil
	}
	data := t.Data()
	var hits []model.Hit

	stack := []*tree.Cluster{t.Root()}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		_, dMin, dMax := t.Bounds(query, c)
		if dMin > radius {
			continue
		}

		if dMax <= radius {
			for _, idx := range t.Instances(c) {
				hits = append(hits, model.Hit{Index: idx, Distance: data.Distance(query, data.Instance(idx))})
			}
			continue
		}

		if left, right, ok := c.Children(); ok {
			stack = append(stack, right, left)
			continue
		}

		for _, idx := range t.Instances(c) {
			if d := data.Distance(query, data.Instance(idx)); d <= radius {
				hits = append(hits, model.Hit{Index: idx, Distance: d})
			}
		}
	}
	return hits
}
