package tree

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/cakes/dataset"
)

// Build constructs a tree over data.
//
// The root owns every instance. A cluster is split while it has more than
// MinCardinality instances, a positive radius and depth below MaxDepth.
// Sibling subtrees are grown concurrently; ctx cancels construction.
func Build[T any](ctx context.Context, data dataset.Dataset[T], optFns ...BuildOption) (*Tree[T], error) {
	opts := DefaultBuildOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MinCardinality < 1 {
		opts.MinCardinality = 1
	}
	if opts.SampleThreshold < 1 {
		opts.SampleThreshold = DefaultBuildOptions.SampleThreshold
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}

	n := data.Cardinality()
	if n == 0 {
		return nil, dataset.ErrEmpty
	}

	start := time.Now()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	b := &builder[T]{
		ctx:     gctx,
		g:       g,
		sem:     semaphore.NewWeighted(int64(opts.Parallelism - 1)),
		data:    data,
		indices: indices,
		opts:    opts,
	}

	root := &Cluster{offset: 0, cardinality: n}
	g.Go(func() error { return b.grow(root) })
	if err := g.Wait(); err != nil {
		if opts.Logger != nil {
			opts.Logger.ErrorContext(ctx, "tree build failed", "dataset", data.Name(), "error", err)
		}
		return nil, err
	}

	t := newTree(data, root, indices, Params{
		MaxDepth:        opts.MaxDepth,
		MinCardinality:  opts.MinCardinality,
		SampleThreshold: opts.SampleThreshold,
		Seed:            opts.Seed,
	})

	if opts.Logger != nil {
		opts.Logger.DebugContext(ctx, "tree built",
			"dataset", data.Name(),
			"cardinality", n,
			"clusters", t.NumClusters(),
			"depth", t.Depth(),
			"radius", t.Radius(),
			"duration", time.Since(start),
		)
	}
	return t, nil
}

type builder[T any] struct {
	ctx     context.Context
	g       *errgroup.Group
	sem     *semaphore.Weighted
	data    dataset.Dataset[T]
	indices []int
	opts    BuildOptions
}

// grow summarizes c and recursively partitions it. Concurrent calls work on
// disjoint ranges of b.indices.
func (b *builder[T]) grow(c *Cluster) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}

	members := b.indices[c.offset : c.offset+c.cardinality]
	b.summarize(c, members)
	if !b.splittable(c) {
		return nil
	}

	left, right := b.partition(c, members)
	c.left, c.right = left, right

	if b.sem.TryAcquire(1) {
		b.g.Go(func() error {
			defer b.sem.Release(1)
			return b.grow(left)
		})
	} else if err := b.grow(left); err != nil {
		return err
	}
	return b.grow(right)
}

func (b *builder[T]) splittable(c *Cluster) bool {
	if c.cardinality <= b.opts.MinCardinality || c.radius == 0 {
		return false
	}
	return b.opts.MaxDepth == 0 || c.depth < b.opts.MaxDepth
}

// summarize sets the center, radius, arg-radial and LFD of c.
func (b *builder[T]) summarize(c *Cluster, members []int) {
	c.center = b.geometricMedian(b.sample(c, members))

	dists := dataset.OneToMany(b.data, c.center, members)
	arg, radius := argMax(dists)
	c.argRadial = members[arg]
	c.radius = radius
	c.lfd = localFractalDimension(dists, radius)
}

func (b *builder[T]) sample(c *Cluster, members []int) []int {
	n := len(members)
	if n <= b.opts.SampleThreshold {
		return members
	}
	m := max(b.opts.SampleThreshold, int(math.Ceil(math.Sqrt(float64(n)))))
	if m >= n {
		return members
	}

	rng := rand.New(rand.NewPCG(b.opts.Seed, uint64(c.offset)<<16|uint64(c.depth)))
	perm := rng.Perm(n)[:m]
	out := make([]int, m)
	for i, p := range perm {
		out[i] = members[p]
	}
	return out
}

// geometricMedian returns the instance minimizing the sum of distances to
// all others. Ties go to the earliest candidate.
func (b *builder[T]) geometricMedian(candidates []int) int {
	if len(candidates) <= 2 {
		return candidates[0]
	}

	sums := make([]float64, len(candidates))
	for i := range candidates {
		a := b.data.Instance(candidates[i])
		for j := i + 1; j < len(candidates); j++ {
			d := b.data.Distance(a, b.data.Instance(candidates[j]))
			sums[i] += d
			sums[j] += d
		}
	}

	best := 0
	for i := 1; i < len(sums); i++ {
		if sums[i] < sums[best] {
			best = i
		}
	}
	return candidates[best]
}

// partition splits members in place between the two poles: the arg-radial
// instance and the instance farthest from it. Ties go to the left pole.
func (b *builder[T]) partition(c *Cluster, members []int) (*Cluster, *Cluster) {
	leftDists := dataset.OneToMany(b.data, c.argRadial, members)
	arg, _ := argMax(leftDists)
	rightDists := dataset.OneToMany(b.data, members[arg], members)

	left := make([]int, 0, len(members))
	right := make([]int, 0, len(members)/2)
	for i, idx := range members {
		if leftDists[i] <= rightDists[i] {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	copy(members, left)
	copy(members[len(left):], right)

	return &Cluster{offset: c.offset, cardinality: len(left), depth: c.depth + 1},
		&Cluster{offset: c.offset + len(left), cardinality: len(right), depth: c.depth + 1}
}

func argMax(values []float64) (int, float64) {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best, values[best]
}

// localFractalDimension estimates log2(count(<= r) / count(<= r/2)) from the
// center distances of a cluster's instances.
func localFractalDimension(dists []float64, radius float64) float64 {
	if radius == 0 {
		return 1
	}
	half := radius / 2
	inner := 0
	for _, d := range dists {
		if d <= half {
			inner++
		}
	}
	if inner == 0 || inner == len(dists) {
		return 1
	}
	return math.Log2(float64(len(dists)) / float64(inner))
}
