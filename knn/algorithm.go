package knn

import (
	"fmt"
	"strings"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// Algorithm selects a k-NN search strategy.
type Algorithm int

const (
	// AlgorithmLinear scans every instance.
	AlgorithmLinear Algorithm = iota
	// AlgorithmRepeatedRNN grows a range search until it holds k hits.
	AlgorithmRepeatedRNN
	// AlgorithmSieveV1 prunes grains by a certified threshold.
	AlgorithmSieveV1
	// AlgorithmSieveV2 is SieveV1 with cluster centers as separate grains.
	AlgorithmSieveV2
	// AlgorithmExpandingThreshold runs a two-queue branch and bound.
	AlgorithmExpandingThreshold
)

// DefaultAlgorithm is the strategy used when none is configured.
const DefaultAlgorithm = AlgorithmRepeatedRNN

var algorithmNames = [...]string{
	AlgorithmLinear:             "linear",
	AlgorithmRepeatedRNN:        "repeated-rnn",
	AlgorithmSieveV1:            "sieve-v1",
	AlgorithmSieveV2:            "sieve-v2",
	AlgorithmExpandingThreshold: "expanding-threshold",
}

// Algorithms returns every strategy in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmLinear,
		AlgorithmRepeatedRNN,
		AlgorithmSieveV1,
		AlgorithmSieveV2,
		AlgorithmExpandingThreshold,
	}
}

// Valid reports whether a is a known strategy.
func (a Algorithm) Valid() bool {
	return a >= AlgorithmLinear && a <= AlgorithmExpandingThreshold
}

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// ParseAlgorithm returns the algorithm with the given name. Names are
// case-insensitive and accept underscores in place of hyphens.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, a := range Algorithms() {
		if algorithmNames[a] == normalized {
			return a, nil
		}
	}
	switch normalized {
	case "rnn", "repeatedrnn":
		return AlgorithmRepeatedRNN, nil
	case "sieve":
		return AlgorithmSieveV2, nil
	case "et", "expandingthreshold":
		return AlgorithmExpandingThreshold, nil
	}
	return 0, fmt.Errorf("knn: unknown algorithm %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("knn: unknown algorithm %d", int(a))
	}
	return []byte(a.String()), nil
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

// Search returns the k nearest neighbors of query in t using alg, ordered by
// (Distance, Index). k <= 0 yields no hits; k above the cardinality yields
// every instance. It panics if alg is not a known strategy.
func Search[T any](alg Algorithm, t *tree.Tree[T], query T, k int) []model.Hit {
	switch alg {
	case AlgorithmLinear:
		return Linear(t, query, k)
	case AlgorithmRepeatedRNN:
		return RepeatedRNN(t, query, k)
	case AlgorithmSieveV1:
		return SieveV1(t, query, k)
	case AlgorithmSieveV2:
		return SieveV2(t, query, k)
	case AlgorithmExpandingThreshold:
		return ExpandingThreshold(t, query, k)
	default:
		panic(fmt.Sprintf("knn: unknown algorithm %d", int(alg)))
	}
}
