package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/cakes/distance"
)

// ErrEmpty is returned when a dataset without instances is used where at
// least one instance is required.
var ErrEmpty = errors.New("dataset is empty")

// ErrDimensionMismatch indicates vectors of different lengths in one dataset.
type ErrDimensionMismatch struct {
	Row      int // Row that disagreed
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("query dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("row %d: dimension mismatch: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

// ErrNonFiniteQuery indicates a query with a NaN or infinite component.
// Distances to such a query are not comparable, so no search can rank them.
type ErrNonFiniteQuery struct {
	Component int     // Index of the first offending component
	Value     float64 // Its value
}

func (e *ErrNonFiniteQuery) Error() string {
	return fmt.Sprintf("query component %d is not finite: %v", e.Component, e.Value)
}

// QueryValidator is implemented by datasets that can reject queries their
// metric cannot compare. Row is -1 in the errors it returns.
type QueryValidator[T any] interface {
	ValidateQuery(query T) error
}

// Dataset is an immutable, indexable collection of instances plus the metric
// that compares them.
type Dataset[T any] interface {
	// Name identifies the dataset in logs and persisted trees.
	Name() string

	// Cardinality returns the number of instances. It never changes.
	Cardinality() int

	// Instance returns the instance at index i, 0 <= i < Cardinality().
	Instance(i int) T

	// Distance compares two instances (or an instance and a query).
	Distance(a, b T) float64
}

// Vectors is an in-memory Dataset backed by a slice.
// It is safe for concurrent reads.
type Vectors[T any] struct {
	name      string
	instances []T
	metric    distance.Func[T]
	validate  func(T) error
}

// Compile time check to ensure Vectors satisfies the Dataset interface.
var (
	_ Dataset[[]float64]        = (*Vectors[[]float64])(nil)
	_ QueryValidator[[]float64] = (*Vectors[[]float64])(nil)
)

// New creates a Dataset over instances. The slice is retained, not copied;
// callers must not modify it afterwards.
func New[T any](name string, instances []T, metric distance.Func[T]) *Vectors[T] {
	return &Vectors[T]{
		name:      name,
		instances: instances,
		metric:    metric,
	}
}

// NewFloat creates a vector dataset for one of the built-in vector metrics.
// All vectors must have the same dimension.
func NewFloat(name string, vectors [][]float64, m distance.Metric) (*Vectors[[]float64], error) {
	fn, err := distance.Provider(m)
	if err != nil {
		return nil, err
	}
	if err := CheckDimensions(vectors); err != nil {
		return nil, err
	}
	v := New(name, vectors, fn)
	if len(vectors) > 0 {
		dim := len(vectors[0])
		v.validate = func(q []float64) error {
			if len(q) != dim {
				return &ErrDimensionMismatch{Row: -1, Expected: dim, Actual: len(q)}
			}
			for i, x := range q {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return &ErrNonFiniteQuery{Component: i, Value: x}
				}
			}
			return nil
		}
	}
	return v, nil
}

// ValidateQuery implements QueryValidator. Datasets created by NewFloat
// reject queries of the wrong dimension or with non-finite components;
// others accept every query.
func (v *Vectors[T]) ValidateQuery(query T) error {
	if v.validate == nil {
		return nil
	}
	return v.validate(query)
}

// Name implements Dataset.
func (v *Vectors[T]) Name() string { return v.name }

// Cardinality implements Dataset.
func (v *Vectors[T]) Cardinality() int { return len(v.instances) }

// Instance implements Dataset.
func (v *Vectors[T]) Instance(i int) T { return v.instances[i] }

// Distance implements Dataset.
func (v *Vectors[T]) Distance(a, b T) float64 { return v.metric(a, b) }

// Instances returns the backing slice. It must be treated as read-only.
func (v *Vectors[T]) Instances() []T { return v.instances }

// QueryToOne returns the distance from query to the instance at index i.
func QueryToOne[T any](d Dataset[T], query T, i int) float64 {
	return d.Distance(query, d.Instance(i))
}

// QueryToMany returns the distances from query to the instances at indices.
func QueryToMany[T any](d Dataset[T], query T, indices []int) []float64 {
	out := make([]float64, len(indices))
	for j, i := range indices {
		out[j] = d.Distance(query, d.Instance(i))
	}
	return out
}

// OneToMany returns the distances from the instance at index a to the
// instances at indices.
func OneToMany[T any](d Dataset[T], a int, indices []int) []float64 {
	return QueryToMany(d, d.Instance(a), indices)
}

// CheckDimensions verifies that every vector has the length of the first one.
func CheckDimensions[E any](vectors [][]E) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return &ErrDimensionMismatch{Row: i, Expected: dim, Actual: len(v)}
		}
	}
	return nil
}
