package testutil

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/distance"
	"github.com/hupe1980/cakes/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates random vectors from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range num {
		vec := make([]float64, dimensions)
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}
	return vectors
}

// ClusteredVectors generates vectors scattered around random centroids in
// the unit cube. Useful for data with low local fractal dimension.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float64) [][]float64 {
	centroids := r.UniformVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := make([]float64, dim)
		for j := range dim {
			vec[j] = centroid[j] + r.rand.NormFloat64()*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// IntegerVectors generates vectors with integer coordinates in [0, span).
// Distances between such vectors tie often, which exercises tie-breaking.
func (r *RNG) IntegerVectors(num, dim, span int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range num {
		vec := make([]float64, dim)
		for j := range dim {
			vec[j] = float64(r.rand.IntN(span))
		}
		vectors[i] = vec
	}
	return vectors
}

// LineVectors returns n one-dimensional points at 0, 1, ..., n-1.
func LineVectors(n int) [][]float64 {
	vectors := make([][]float64, n)
	for i := range vectors {
		vectors[i] = []float64{float64(i)}
	}
	return vectors
}

// Euclidean wraps vectors in a Euclidean dataset.
func Euclidean(name string, vectors [][]float64) *dataset.Vectors[[]float64] {
	return dataset.New(name, vectors, distance.Euclidean)
}

// ExactKNN computes the k nearest neighbors of query by brute force, ordered
// by (distance, index).
func ExactKNN[T any](data dataset.Dataset[T], query T, k int) []model.Hit {
	hits := make([]model.Hit, data.Cardinality())
	for i := range hits {
		hits[i] = model.Hit{Index: i, Distance: data.Distance(query, data.Instance(i))}
	}
	return model.SortAndTruncate(hits, k)
}

// ExactRange returns every instance within radius of query, ordered by
// (distance, index).
func ExactRange[T any](data dataset.Dataset[T], query T, radius float64) []model.Hit {
	var hits []model.Hit
	for i := range data.Cardinality() {
		if d := data.Distance(query, data.Instance(i)); d <= radius {
			hits = append(hits, model.Hit{Index: i, Distance: d})
		}
	}
	model.Sort(hits)
	return hits
}

// TestingT is the subset of testing.TB used by the assertion helpers.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertEquivalentHits checks that got is a valid answer wherever want is:
// both have the same length, got is sorted by distance, the distance
// sequences agree within tolerance, and every hit strictly closer than the
// k-th distance appears in both. Hits at the k-th distance may differ.
func AssertEquivalentHits(t TestingT, want, got []model.Hit) bool {
	t.Helper()

	if len(want) != len(got) {
		t.Errorf("hit count mismatch: want %d, got %d", len(want), len(got))
		return false
	}
	if len(want) == 0 {
		return true
	}

	const tol = 1e-9
	for i := range want {
		if math.Abs(want[i].Distance-got[i].Distance) > tol*max(1, want[i].Distance) {
			t.Errorf("distance %d mismatch: want %s, got %s", i, want[i], got[i])
			return false
		}
		if i > 0 && got[i].Distance < got[i-1].Distance {
			t.Errorf("hits not sorted at %d: %s after %s", i, got[i], got[i-1])
			return false
		}
	}

	kth := want[len(want)-1].Distance
	inGot := make(map[int]bool, len(got))
	for _, h := range got {
		if inGot[h.Index] {
			t.Errorf("duplicate hit %d", h.Index)
			return false
		}
		inGot[h.Index] = true
	}
	for _, h := range want {
		if h.Distance < kth-tol*max(1, kth) && !inGot[h.Index] {
			t.Errorf("missing hit %s", h)
			return false
		}
	}
	return true
}

// ComputeRecall computes the fraction of ground-truth indices found in
// approximate.
func ComputeRecall(groundTruth, approximate []model.Hit) float64 {
	if len(groundTruth) == 0 {
		if len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	truth := make(map[int]struct{}, len(groundTruth))
	for _, h := range groundTruth {
		truth[h.Index] = struct{}{}
	}
	hits := 0
	for _, h := range approximate {
		if _, ok := truth[h.Index]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
