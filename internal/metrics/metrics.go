// Package metrics exposes Prometheus instrumentation for fetches, tracks,
// batches and archives.
//
// Metrics:
//
//   - tunefetch_fetch_attempts_total{result}: every external fetch attempt
//   - tunefetch_tracks_total{status}: terminal track outcomes
//   - tunefetch_batches_total{status}: batch results (completed, all_failed,
//     assembly_failed, invalid)
//   - tunefetch_batch_duration_seconds: time from validation to result
//   - tunefetch_assembly_duration_seconds: time spent writing archives
//   - tunefetch_archive_bytes_total: bytes of assembled archives
//   - tunefetch_workspaces_active: workspaces allocated and not yet released
//
// A Collector owns its registry, so several can coexist in tests. Every
// recording method is a no-op on a nil *Collector.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tunefetch"

// Collector holds the service's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	fetchAttempts *prometheus.CounterVec
	tracks        *prometheus.CounterVec
	batches       *prometheus.CounterVec

	batchDuration    prometheus.Histogram
	assemblyDuration prometheus.Histogram
	archiveBytes     prometheus.Counter

	workspacesActive prometheus.Gauge
}

// NewCollector creates a collector on a fresh registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Total number of external fetch attempts by result",
		}, []string{"result"}),
		tracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_total",
			Help:      "Total number of tracks by terminal status",
		}, []string{"status"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of batches by result",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch processing latency in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		assemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assembly_duration_seconds",
			Help:      "Archive assembly latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		archiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Total bytes of assembled archives",
		}),
		workspacesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces_active",
			Help:      "Current number of allocated workspaces",
		}),
	}

	c.registry.MustRegister(
		c.fetchAttempts,
		c.tracks,
		c.batches,
		c.batchDuration,
		c.assemblyDuration,
		c.archiveBytes,
		c.workspacesActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordFetchAttempt counts one finished fetch attempt.
func (c *Collector) RecordFetchAttempt(ok bool) {
	if c == nil {
		return
	}
	result := "failed"
	if ok {
		result = "succeeded"
	}
	c.fetchAttempts.WithLabelValues(result).Inc()
}

// RecordTrack counts one terminal track outcome ("success" or "failed").
func (c *Collector) RecordTrack(status string) {
	if c == nil {
		return
	}
	c.tracks.WithLabelValues(status).Inc()
}

// RecordBatch counts one batch result and its duration.
func (c *Collector) RecordBatch(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.batches.WithLabelValues(status).Inc()
	c.batchDuration.Observe(elapsed.Seconds())
}

// RecordAssembly observes one archive write.
func (c *Collector) RecordAssembly(elapsed time.Duration, size int64) {
	if c == nil {
		return
	}
	c.assemblyDuration.Observe(elapsed.Seconds())
	if size > 0 {
		c.archiveBytes.Add(float64(size))
	}
}

// SetActiveWorkspaces updates the workspace gauge.
func (c *Collector) SetActiveWorkspaces(n int) {
	if c == nil {
		return
	}
	c.workspacesActive.Set(float64(n))
}
