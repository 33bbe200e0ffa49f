// Package resource bounds the resources shared by concurrent searches:
// worker slots, query throughput and tree file IO.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentSearches is the maximum number of searches running at once.
	// If 0, defaults to 1.
	MaxConcurrentSearches int64

	// QueriesPerSecond limits the rate at which searches start.
	// If 0, unlimited.
	QueriesPerSecond float64

	// Burst is the number of queries that may start at once under
	// QueriesPerSecond. If 0, defaults to MaxConcurrentSearches.
	Burst int

	// IOLimitBytesPerSec is the maximum throughput for tree file reads and
	// writes. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller gates searches and tree IO.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Concurrency
	searchSem *semaphore.Weighted
	active    atomic.Int64

	// Throughput
	queryLimiter *rate.Limiter
	ioLimiter    *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.MaxConcurrentSearches)
	}

	c := &Controller{
		cfg:       cfg,
		searchSem: semaphore.NewWeighted(cfg.MaxConcurrentSearches),
	}

	if cfg.QueriesPerSecond > 0 {
		c.queryLimiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), cfg.Burst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireSearch waits for the query rate limit and a free search slot.
// It blocks until both are available or ctx is canceled.
func (c *Controller) AcquireSearch(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.queryLimiter != nil {
		if err := c.queryLimiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.searchSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.active.Add(1)
	return nil
}

// TryAcquireSearch attempts to reserve a search slot without blocking.
// It fails if the rate limit or the slots are exhausted.
func (c *Controller) TryAcquireSearch() bool {
	if c == nil {
		return true
	}
	if c.queryLimiter != nil && !c.queryLimiter.Allow() {
		return false
	}
	if !c.searchSem.TryAcquire(1) {
		return false
	}
	c.active.Add(1)
	return true
}

// ReleaseSearch releases a search slot.
func (c *Controller) ReleaseSearch() {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.searchSem.Release(1)
}

// ActiveSearches returns the number of searches holding a slot.
func (c *Controller) ActiveSearches() int64 {
	if c == nil {
		return 0
	}
	return c.active.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	// WaitN rejects requests above the burst, so large buffers wait in chunks.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
