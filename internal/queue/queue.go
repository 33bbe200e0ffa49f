// Package queue provides the priority queues used by the tree searches.
package queue

import (
	"math"

	"github.com/hupe1980/cakes/model"
	"github.com/hupe1980/cakes/tree"
)

// binaryHeap is a value-based binary heap ordered by less.
// The top element is the one for which less holds against all others.
type binaryHeap[E any] struct {
	items []E
	less  func(a, b E) bool
}

func (h *binaryHeap[E]) push(item E) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

func (h *binaryHeap[E]) pop() (E, bool) {
	var zero E
	n := len(h.items)
	if n == 0 {
		return zero, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = zero
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

func (h *binaryHeap[E]) top() (E, bool) {
	if len(h.items) == 0 {
		var zero E
		return zero, false
	}
	return h.items[0], true
}

func (h *binaryHeap[E]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(h.items[i], h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *binaryHeap[E]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && h.less(h.items[r], h.items[l]) {
			best = r
		}
		if !h.less(h.items[best], h.items[i]) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}

// Candidate is a cluster awaiting expansion, with its distance bounds to the
// query.
type Candidate struct {
	Cluster *tree.Cluster
	DMin    float64
	DMax    float64
}

func candidateLess(a, b Candidate) bool {
	if a.DMin != b.DMin {
		return a.DMin < b.DMin
	}
	if a.Cluster.Offset() != b.Cluster.Offset() {
		return a.Cluster.Offset() < b.Cluster.Offset()
	}
	return a.Cluster.Depth() < b.Cluster.Depth()
}

// CandidateQueue is a min-heap of clusters ordered by (DMin, offset, depth).
type CandidateQueue struct {
	h binaryHeap[Candidate]
}

// NewCandidateQueue initializes an empty queue.
func NewCandidateQueue(capacity int) *CandidateQueue {
	return &CandidateQueue{h: binaryHeap[Candidate]{
		items: make([]Candidate, 0, capacity),
		less:  candidateLess,
	}}
}

// Push adds a candidate.
func (q *CandidateQueue) Push(c Candidate) { q.h.push(c) }

// Pop removes and returns the candidate with the smallest DMin.
func (q *CandidateQueue) Pop() (Candidate, bool) { return q.h.pop() }

// Peek returns the candidate with the smallest DMin without removing it.
func (q *CandidateQueue) Peek() (Candidate, bool) { return q.h.top() }

// Len returns the number of queued candidates.
func (q *CandidateQueue) Len() int { return len(q.h.items) }

// HitQueue keeps the k best hits seen so far in a max-heap ordered by
// (Distance, Index), so the worst retained hit is on top.
type HitQueue struct {
	h binaryHeap[model.Hit]
	k int
}

// NewHitQueue initializes a queue retaining at most k hits.
func NewHitQueue(k int) *HitQueue {
	return &HitQueue{
		h: binaryHeap[model.Hit]{
			items: make([]model.Hit, 0, max(k, 0)),
			less:  func(a, b model.Hit) bool { return model.Less(b, a) },
		},
		k: k,
	}
}

// Push offers a hit. It reports whether the hit was retained.
// When the queue is full a hit is retained only if it sorts before the
// current worst hit, which is then evicted.
func (q *HitQueue) Push(hit model.Hit) bool {
	if q.k <= 0 {
		return false
	}
	if len(q.h.items) < q.k {
		q.h.push(hit)
		return true
	}
	if !model.Less(hit, q.h.items[0]) {
		return false
	}
	q.h.items[0] = hit
	q.h.siftDown(0)
	return true
}

// Len returns the number of retained hits.
func (q *HitQueue) Len() int { return len(q.h.items) }

// Full reports whether k hits are retained.
func (q *HitQueue) Full() bool { return len(q.h.items) >= q.k }

// Worst returns the retained hit that sorts last.
func (q *HitQueue) Worst() (model.Hit, bool) { return q.h.top() }

// Threshold returns the distance of the k-th best hit, or +Inf while fewer
// than k hits are retained. No instance farther than Threshold can enter
// the queue.
func (q *HitQueue) Threshold() float64 {
	if !q.Full() || q.k <= 0 {
		return math.Inf(1)
	}
	return q.h.items[0].Distance
}

// Drain empties the queue and returns its hits ordered by (Distance, Index).
func (q *HitQueue) Drain() []model.Hit {
	out := make([]model.Hit, len(q.h.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = q.h.pop()
	}
	return out
}
