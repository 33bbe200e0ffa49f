package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorMetrics(t *testing.T) {
	tests := []struct {
		name     string
		fn       Func[[]float64]
		a, b     []float64
		expected float64
	}{
		{"EuclideanSimple", Euclidean, []float64{0, 0}, []float64{3, 4}, 5},
		{"EuclideanIdentical", Euclidean, []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"ManhattanSimple", Manhattan, []float64{1, -1}, []float64{-1, 1}, 4},
		{"ChebyshevSimple", Chebyshev, []float64{1, 5, 2}, []float64{2, 1, 2}, 4},
		{"AngularOrthogonal", Angular, []float64{1, 0}, []float64{0, 1}, 0.5},
		{"AngularOpposite", Angular, []float64{1, 0}, []float64{-2, 0}, 1},
		{"AngularParallel", Angular, []float64{1, 1}, []float64{3, 3}, 0},
		{"AngularBothZero", Angular, []float64{0, 0}, []float64{0, 0}, 0},
		{"AngularOneZero", Angular, []float64{0, 0}, []float64{1, 0}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.fn(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, tt.fn(tt.b, tt.a), 1e-9, "metric must be symmetric")
		})
	}
}

func TestTriangleInequality(t *testing.T) {
	points := [][]float64{
		{0, 0, 0}, {1, 2, 3}, {-4, 1, 0.5}, {2, 2, 2}, {10, -3, 7}, {0.1, 0.2, -0.3},
	}
	for _, m := range []Metric{MetricEuclidean, MetricManhattan, MetricChebyshev, MetricAngular} {
		fn, err := Provider(m)
		require.NoError(t, err)
		t.Run(m.String(), func(t *testing.T) {
			for _, a := range points {
				for _, b := range points {
					for _, c := range points {
						assert.LessOrEqual(t, fn(a, c), fn(a, b)+fn(b, c)+1e-9)
					}
				}
			}
		})
	}
}

func TestHamming(t *testing.T) {
	assert.Equal(t, 0.0, Hamming([]byte{0xAB, 0xCD}, []byte{0xAB, 0xCD}))
	assert.Equal(t, 8.0, Hamming([]byte{0xFF}, []byte{0x00}))
	assert.Equal(t, 2.0, Hamming([]byte{0x01, 0x80}, []byte{0x00, 0x00}))
	assert.Equal(t, 64.0, HammingUint64(0, math.MaxUint64))
	assert.Equal(t, 1.0, HammingUint64(4, 5))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"héllo", "hello", 1},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestMetric(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "euclidean", MetricEuclidean.String())
		assert.Equal(t, "manhattan", MetricManhattan.String())
		assert.Equal(t, "chebyshev", MetricChebyshev.String())
		assert.Equal(t, "angular", MetricAngular.String())
		assert.Equal(t, "Unknown(99)", Metric(99).String())
	})

	t.Run("Parse", func(t *testing.T) {
		m, err := ParseMetric("L2")
		require.NoError(t, err)
		assert.Equal(t, MetricEuclidean, m)

		m, err = ParseMetric(" cityblock ")
		require.NoError(t, err)
		assert.Equal(t, MetricManhattan, m)

		_, err = ParseMetric("cosine")
		assert.Error(t, err)
	})

	t.Run("Text", func(t *testing.T) {
		var m Metric
		require.NoError(t, m.UnmarshalText([]byte("linf")))
		assert.Equal(t, MetricChebyshev, m)

		b, err := MetricAngular.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "angular", string(b))

		_, err = Metric(42).MarshalText()
		assert.Error(t, err)
	})

	t.Run("Provider", func(t *testing.T) {
		_, err := Provider(Metric(42))
		assert.Error(t, err)
	})
}
