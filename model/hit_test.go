package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHitOrdering(t *testing.T) {
	hits := []Hit{
		{Index: 6, Distance: 1.5},
		{Index: 4, Distance: 0.5},
		{Index: 3, Distance: 1.5},
		{Index: 5, Distance: 0.5},
		{Index: 0, Distance: 4.5},
	}

	t.Run("Sort", func(t *testing.T) {
		h := append([]Hit(nil), hits...)
		Sort(h)
		assert.Equal(t, []int{4, 5, 3, 6, 0}, Indices(h))
		assert.Equal(t, []float64{0.5, 0.5, 1.5, 1.5, 4.5}, Distances(h))
	})

	t.Run("SortAndTruncate", func(t *testing.T) {
		h := SortAndTruncate(append([]Hit(nil), hits...), 3)
		assert.Equal(t, []int{4, 5, 3}, Indices(h))

		assert.Empty(t, SortAndTruncate(append([]Hit(nil), hits...), 0))
		assert.Empty(t, SortAndTruncate(append([]Hit(nil), hits...), -1))
		assert.Len(t, SortAndTruncate(append([]Hit(nil), hits...), 100), 5)
	})

	t.Run("Compare", func(t *testing.T) {
		assert.True(t, Less(Hit{Index: 9, Distance: 1}, Hit{Index: 0, Distance: 2}))
		assert.True(t, Less(Hit{Index: 1, Distance: 1}, Hit{Index: 2, Distance: 1}))
		assert.Equal(t, 0, Compare(Hit{Index: 1, Distance: 1}, Hit{Index: 1, Distance: 1}))
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Hit(4:0.5)", Hit{Index: 4, Distance: 0.5}.String())
	})
}
