// Package metrics exposes Prometheus collectors for lookups, inserts and loads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/standardbeagle/hashsvc/internal/hashing"
)

const namespace = "hashsvc"

// Result label values
const (
	ResultHit        = "hit"
	ResultMiss       = "miss"
	ResultError      = "error"
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultDownloaded = "downloaded"
	ResultSkipped    = "skipped"
)

// Collectors groups every metric the service records. Each instance owns its
// registry so tests and multiple servers in one process don't collide.
type Collectors struct {
	registry *prometheus.Registry

	Lookups      *prometheus.CounterVec
	Inserts      *prometheus.CounterVec
	Loads        *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	SyncFiles    *prometheus.CounterVec
	Entries      *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "requests_total",
		}, []string{"namespace", "result"}),
		Inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "inserts_total",
		}, []string{"namespace"}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "loads_total",
		}, []string{"result"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "load_duration_seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		SyncFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "files_total",
		}, []string{"result"}),
		Entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "entries",
		}, []string{"namespace"}),
	}

	c.registry.MustRegister(c.Lookups, c.Inserts, c.Loads, c.LoadDuration, c.SyncFiles, c.Entries)
	return c
}

// Registry returns the registry backing these collectors, for promhttp
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveLookup records a Get outcome. Safe on a nil receiver.
func (c *Collectors) ObserveLookup(ns hashing.Namespace, result string) {
	if c == nil {
		return
	}
	c.Lookups.WithLabelValues(ns.String(), result).Inc()
}

// ObserveInsert records an Add
func (c *Collectors) ObserveInsert(ns hashing.Namespace) {
	if c == nil {
		return
	}
	c.Inserts.WithLabelValues(ns.String()).Inc()
}

// ObserveLoad records a finished load attempt and its duration
func (c *Collectors) ObserveLoad(err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	c.Loads.WithLabelValues(result).Inc()
	c.LoadDuration.Observe(elapsed.Seconds())
}

// ObserveSyncFile records whether a remote source was downloaded or skipped
func (c *Collectors) ObserveSyncFile(result string) {
	if c == nil {
		return
	}
	c.SyncFiles.WithLabelValues(result).Inc()
}

// SetEntries publishes the current per-namespace table sizes
func (c *Collectors) SetEntries(counts map[hashing.Namespace]int) {
	if c == nil {
		return
	}
	for ns, n := range counts {
		c.Entries.WithLabelValues(ns.String()).Set(float64(n))
	}
}
