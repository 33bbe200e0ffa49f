package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/hupe1980/cakes/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectors(t *testing.T) {
	t.Run("Accessors", func(t *testing.T) {
		d := New("line", []float64{0, 1, 2, 3}, func(a, b float64) float64 {
			if a > b {
				return a - b
			}
			return b - a
		})
		assert.Equal(t, "line", d.Name())
		assert.Equal(t, 4, d.Cardinality())
		assert.Equal(t, 2.0, d.Instance(2))
		assert.Equal(t, 3.0, d.Distance(0, 3))
		assert.Equal(t, 2.5, QueryToOne[float64](d, 0.5, 3))
		assert.Equal(t, []float64{0.5, 1.5}, QueryToMany[float64](d, 1.5, []int{1, 3}))
		assert.Equal(t, []float64{1, 2}, OneToMany[float64](d, 0, []int{1, 2}))
	})

	t.Run("Strings", func(t *testing.T) {
		d := New("words", []string{"cake", "bake", "lake"}, distance.Levenshtein)
		assert.Equal(t, 1.0, d.Distance(d.Instance(0), d.Instance(1)))
	})

	t.Run("NewFloat", func(t *testing.T) {
		d, err := NewFloat("vec", [][]float64{{0, 0}, {3, 4}}, distance.MetricEuclidean)
		require.NoError(t, err)
		assert.Equal(t, 5.0, d.Distance(d.Instance(0), d.Instance(1)))
		assert.Len(t, d.Instances(), 2)

		require.NoError(t, d.ValidateQuery([]float64{1, 1}))
		var qm *ErrDimensionMismatch
		require.ErrorAs(t, d.ValidateQuery([]float64{1}), &qm)
		assert.Equal(t, -1, qm.Row)
		assert.Contains(t, qm.Error(), "query")

		var nf *ErrNonFiniteQuery
		require.ErrorAs(t, d.ValidateQuery([]float64{1, math.NaN()}), &nf)
		assert.Equal(t, 1, nf.Component)
		require.ErrorAs(t, d.ValidateQuery([]float64{math.Inf(-1), 0}), &nf)
		assert.Equal(t, 0, nf.Component)

		_, err = NewFloat("vec", [][]float64{{0, 0}, {3}}, distance.MetricEuclidean)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 1, dm.Row)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 1, dm.Actual)

		_, err = NewFloat("vec", nil, distance.Metric(77))
		assert.Error(t, err)
	})
}

func TestLoadCSV(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		vectors, err := LoadCSV(strings.NewReader("1,2\n3, 4\n-1.5,0\n"), CSVOptions{})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {-1.5, 0}}, vectors)
	})

	t.Run("HeaderAndDelimiter", func(t *testing.T) {
		vectors, err := LoadCSV(strings.NewReader("x;y\n1;2\n"), CSVOptions{Comma: ';', Header: true})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{1, 2}}, vectors)
	})

	t.Run("BadNumber", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("1,2\n3,x\n"), CSVOptions{})
		assert.ErrorContains(t, err, "row 2 column 2")
	})

	t.Run("RaggedRows", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("1,2\n3\n"), CSVOptions{})
		assert.Error(t, err)
	})
}
