// Package prom exports cakes operational metrics to Prometheus.
//
//	c, _ := prom.NewCollector(prometheus.DefaultRegisterer, "cakes")
//	idx, _ := cakes.New(ctx, data, cakes.WithMetricsCollector(c))
package prom

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/cakes"
	"github.com/hupe1980/cakes/knn"
)

var errBatchFailed = errors.New("batch search failed")

// Compile time check to ensure Collector satisfies the MetricsCollector interface.
var _ cakes.MetricsCollector = (*Collector)(nil)

// Collector implements cakes.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	ops         *prometheus.CounterVec
	hits        *prometheus.HistogramVec
	batchItems  *prometheus.CounterVec
	cardinality prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
// namespace prefixes every metric name.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of index operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op", "algorithm", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total index operations",
		}, []string{"op", "status"}),
		hits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_hits",
			Help:      "Number of hits returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"op"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_queries_total",
			Help:      "Total queries submitted through batch search",
		}, []string{"status"}),
		cardinality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_instances",
			Help:      "Cardinality of the most recently built tree",
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.hits, c.batchItems, c.cardinality} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements cakes.MetricsCollector.
func (c *Collector) RecordBuild(cardinality int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("build", "", status(err)).Observe(duration.Seconds())
	c.ops.WithLabelValues("build", status(err)).Inc()
	if err == nil {
		c.cardinality.Set(float64(cardinality))
	}
}

// RecordSearch implements cakes.MetricsCollector.
func (c *Collector) RecordSearch(alg knn.Algorithm, _, hits int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("search", alg.String(), status(err)).Observe(duration.Seconds())
	c.ops.WithLabelValues("search", status(err)).Inc()
	if err == nil {
		c.hits.WithLabelValues("search").Observe(float64(hits))
	}
}

// RecordBatchSearch implements cakes.MetricsCollector.
func (c *Collector) RecordBatchSearch(count, failed int, duration time.Duration) {
	var err error
	if failed > 0 {
		err = errBatchFailed
	}
	c.opLatency.WithLabelValues("batch_search", "", status(err)).Observe(duration.Seconds())
	c.ops.WithLabelValues("batch_search", status(err)).Inc()
	c.batchItems.WithLabelValues("success").Add(float64(count - failed))
	c.batchItems.WithLabelValues("error").Add(float64(failed))
}

// RecordRangeSearch implements cakes.MetricsCollector.
func (c *Collector) RecordRangeSearch(hits int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("range_search", "", status(err)).Observe(duration.Seconds())
	c.ops.WithLabelValues("range_search", status(err)).Inc()
	if err == nil {
		c.hits.WithLabelValues("range_search").Observe(float64(hits))
	}
}
