package cakes

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/cakes/knn"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems;
// metrics/prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each tree construction.
	RecordBuild(cardinality int, duration time.Duration, err error)

	// RecordSearch is called after each k-NN search.
	// hits is the number of neighbors returned.
	RecordSearch(alg knn.Algorithm, k, hits int, duration time.Duration, err error)

	// RecordBatchSearch is called after each batch search.
	// count is the number of queries attempted, failed is the number that failed.
	RecordBatchSearch(count, failed int, duration time.Duration)

	// RecordRangeSearch is called after each range search.
	RecordRangeSearch(hits int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)                       {}
func (NoopMetricsCollector) RecordSearch(knn.Algorithm, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatchSearch(int, int, time.Duration)                  {}
func (NoopMetricsCollector) RecordRangeSearch(int, time.Duration, error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchHits        atomic.Int64
	SearchTotalNanos  atomic.Int64
	BatchSearchCount  atomic.Int64
	BatchSearchItems  atomic.Int64
	BatchSearchFailed atomic.Int64
	RangeSearchCount  atomic.Int64
	RangeSearchErrors atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ int, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ knn.Algorithm, _, hits int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchHits.Add(int64(hits))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordBatchSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchSearch(count, failed int, _ time.Duration) {
	b.BatchSearchCount.Add(1)
	b.BatchSearchItems.Add(int64(count))
	b.BatchSearchFailed.Add(int64(failed))
}

// RecordRangeSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeSearch(_ int, _ time.Duration, err error) {
	b.RangeSearchCount.Add(1)
	if err != nil {
		b.RangeSearchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:        b.BuildCount.Load(),
		BuildErrors:       b.BuildErrors.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchHits:        b.SearchHits.Load(),
		SearchAvgNanos:    b.getAvgSearchNanos(),
		BatchSearchCount:  b.BatchSearchCount.Load(),
		BatchSearchItems:  b.BatchSearchItems.Load(),
		BatchSearchFailed: b.BatchSearchFailed.Load(),
		RangeSearchCount:  b.RangeSearchCount.Load(),
		RangeSearchErrors: b.RangeSearchErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount        int64
	BuildErrors       int64
	SearchCount       int64
	SearchErrors      int64
	SearchHits        int64
	SearchAvgNanos    int64
	BatchSearchCount  int64
	BatchSearchItems  int64
	BatchSearchFailed int64
	RangeSearchCount  int64
	RangeSearchErrors int64
}
