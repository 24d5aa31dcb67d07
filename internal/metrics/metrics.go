// Package metrics exposes Prometheus instruments for sync passes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/honeycarbs/job-sync/internal/domain"
)

const namespace = "jobsync"

// Collector records pass outcomes. A nil *Collector is a valid no-op.
type Collector struct {
	passes        *prometheus.CounterVec
	fetched       *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	chunkFailures *prometheus.CounterVec
	saved         prometheus.Counter
	evicted       prometheus.Counter
	passDuration  prometheus.Histogram
	storedJobs    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector creates instruments and registers them with reg
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Sync passes by result (ok, partial, empty, skipped, failed)",
		}, []string{"result"}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_records_total",
			Help:      "Records fetched per source",
		}, []string{"source"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Failed fetches per source",
		}, []string{"source"}),
		chunkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Failed store batches by operation",
		}, []string{"op"}),
		saved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_records_total",
			Help:      "Records upserted into the store",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_records_total",
			Help:      "Records deleted by the capacity policy",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a sync pass",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		storedJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_jobs",
			Help:      "Jobs in the bounded store after the last pass",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.passes,
		c.fetched,
		c.sourceErrors,
		c.chunkFailures,
		c.saved,
		c.evicted,
		c.passDuration,
		c.storedJobs,
	)

	return c
}

// RecordPass records the outcome of a finished pass
func (c *Collector) RecordPass(result string, stats domain.SyncStats) {
	if c == nil {
		return
	}
	c.passes.WithLabelValues(result).Inc()
	for source, n := range stats.Sources {
		c.fetched.WithLabelValues(string(source)).Add(float64(n))
	}
	c.saved.Add(float64(stats.Saved))
	c.evicted.Add(float64(stats.Deleted))
	if !stats.StartedAt.IsZero() && !stats.FinishedAt.IsZero() {
		c.passDuration.Observe(stats.FinishedAt.Sub(stats.StartedAt).Seconds())
	}
}

// RecordSkipped counts a pass rejected by the guard
func (c *Collector) RecordSkipped() {
	if c == nil {
		return
	}
	c.passes.WithLabelValues("skipped").Inc()
}

// RecordSourceError counts a failed fetch
func (c *Collector) RecordSourceError(source domain.Source) {
	if c == nil {
		return
	}
	c.sourceErrors.WithLabelValues(string(source)).Inc()
}

// RecordChunkFailure counts a failed store batch
func (c *Collector) RecordChunkFailure(op string) {
	if c == nil {
		return
	}
	c.chunkFailures.WithLabelValues(op).Inc()
}

// SetStoredJobs updates the store size gauge
func (c *Collector) SetStoredJobs(n int) {
	if c == nil {
		return
	}
	c.storedJobs.Set(float64(n))
}

// Handler serves the registry in Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
