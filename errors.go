package cakes

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/knn"
	"github.com/hupe1980/cakes/tree"
)

var (
	// ErrInvalidK is returned when k is negative.
	ErrInvalidK = errors.New("k must not be negative")

	// ErrInvalidRadius is returned when a range search radius is negative or NaN.
	ErrInvalidRadius = errors.New("radius must be a non-negative number")

	// ErrEmptyDataset is returned when an index is built over no instances.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrInvalidQuery is returned when a query has NaN or infinite components.
	ErrInvalidQuery = errors.New("query must be finite")

	// ErrDatasetMismatch is returned when a tree file is loaded against a
	// dataset it was not built over.
	ErrDatasetMismatch = errors.New("dataset does not match index")
)

// ErrInvalidAlgorithm indicates an unknown search algorithm.
type ErrInvalidAlgorithm struct {
	Algorithm knn.Algorithm
}

func (e *ErrInvalidAlgorithm) Error() string {
	return fmt.Sprintf("invalid algorithm: %s", e.Algorithm)
}

// ErrDimensionMismatch indicates a query whose dimension differs from the
// indexed vectors.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrCorrupt indicates a tree file that cannot be decoded.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorrupt struct {
	Reason string
	cause  error
}

func (e *ErrCorrupt) Error() string {
	return fmt.Sprintf("corrupt index: %s", e.Reason)
}

func (e *ErrCorrupt) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, dataset.ErrEmpty) {
		return fmt.Errorf("%w: %w", ErrEmptyDataset, err)
	}
	if errors.Is(err, tree.ErrDatasetMismatch) {
		return fmt.Errorf("%w: %w", ErrDatasetMismatch, err)
	}
	var nf *dataset.ErrNonFiniteQuery
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	var dm *dataset.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var corrupt *tree.ErrCorrupt
	if errors.As(err, &corrupt) {
		return &ErrCorrupt{Reason: corrupt.Reason, cause: err}
	}

	return err
}
