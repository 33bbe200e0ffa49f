package queue

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/testutil"
	"github.com/hupe1980/cakes/tree"
)

func TestHitQueue(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	hits := make([]model.Hit, 200)
	for i := range hits {
		hits[i] = model.Hit{Index: i, Distance: float64(rng.IntN(20))}
	}

	q := NewHitQueue(10)
	assert.True(t, math.IsInf(q.Threshold(), 1))
	for _, h := range hits {
		q.Push(h)
	}
	assert.True(t, q.Full())
	assert.Equal(t, 10, q.Len())

	want := model.SortAndTruncate(append([]model.Hit(nil), hits...), 10)
	assert.Equal(t, want[9].Distance, q.Threshold())

	worst, ok := q.Worst()
	require.True(t, ok)
	assert.Equal(t, want[9], worst)

	assert.Equal(t, want, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestHitQueueTieBreak(t *testing.T) {
	q := NewHitQueue(2)
	assert.True(t, q.Push(model.Hit{Index: 5, Distance: 1}))
	assert.True(t, q.Push(model.Hit{Index: 3, Distance: 1}))
	assert.True(t, q.Push(model.Hit{Index: 1, Distance: 1}), "smaller index wins ties")
	assert.False(t, q.Push(model.Hit{Index: 4, Distance: 1}))

	assert.Equal(t, []int{1, 3}, model.Indices(q.Drain()))
}

func TestHitQueueZeroK(t *testing.T) {
	q := NewHitQueue(0)
	assert.False(t, q.Push(model.Hit{Index: 0}))
	assert.Empty(t, q.Drain())
	assert.True(t, math.IsInf(q.Threshold(), 1))
}

func TestCandidateQueue(t *testing.T) {
	tr, err := tree.Build(context.Background(), testutil.Euclidean("line", testutil.LineVectors(8)))
	require.NoError(t, err)

	q := NewCandidateQueue(0)
	_, ok := q.Pop()
	assert.False(t, ok)

	var clusters []*tree.Cluster
	for c := range tr.Leaves() {
		clusters = append(clusters, c)
	}
	require.Len(t, clusters, 8)

	// Push leaves with decreasing bounds, two of them tied.
	for i, c := range clusters {
		q.Push(Candidate{Cluster: c, DMin: float64(len(clusters) - i/2)})
	}
	assert.Equal(t, 8, q.Len())

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 5.0, top.DMin)

	prev := Candidate{DMin: -1}
	for q.Len() > 0 {
		c, _ := q.Pop()
		assert.GreaterOrEqual(t, c.DMin, prev.DMin)
		if c.DMin == prev.DMin {
			assert.Greater(t, c.Cluster.Offset(), prev.Cluster.Offset())
		}
		prev = c
	}
}
