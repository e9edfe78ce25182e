// Package promcollector provides a Prometheus-backed implementation of
// segquery.MetricsCollector.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchBuckets defines histogram buckets suited for in-memory vector search
// latencies, ranging from 100µs to 5s.
var SearchBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Collector implements segquery.MetricsCollector on Prometheus primitives.
type Collector struct {
	searches        *prometheus.CounterVec
	searchDuration  prometheus.Histogram
	segmentSearches *prometheus.CounterVec
	segmentDuration prometheus.Histogram
	assemblies      prometheus.Counter
	assemblyShards  prometheus.Counter
	assemblyBits    prometheus.Counter
}

// New creates a Collector and registers its metrics with reg.
// If reg is nil, the default registerer is used.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segquery_searches_total",
				Help: "Total fan-out searches",
			},
			[]string{"status"},
		),
		searchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "segquery_search_duration_seconds",
				Help:    "Fan-out search duration",
				Buckets: SearchBuckets,
			},
		),
		segmentSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segquery_segment_searches_total",
				Help: "Total per-segment searches",
			},
			[]string{"status"},
		),
		segmentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "segquery_segment_search_duration_seconds",
				Help:    "Per-segment search duration",
				Buckets: SearchBuckets,
			},
		),
		assemblies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "segquery_mask_assemblies_total",
				Help: "Total selection mask assemblies",
			},
		),
		assemblyShards: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "segquery_mask_assembly_shards_total",
				Help: "Validity shards merged during mask assembly",
			},
		),
		assemblyBits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "segquery_mask_assembly_bits_total",
				Help: "Record bits covered by assembled masks",
			},
		),
	}

	for _, m := range []prometheus.Collector{
		c.searches,
		c.searchDuration,
		c.segmentSearches,
		c.segmentDuration,
		c.assemblies,
		c.assemblyShards,
		c.assemblyBits,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordSearch implements segquery.MetricsCollector.
func (c *Collector) RecordSearch(k, segments int, duration time.Duration, err error) {
	c.searches.WithLabelValues(status(err)).Inc()
	c.searchDuration.Observe(duration.Seconds())
}

// RecordSegmentSearch implements segquery.MetricsCollector.
func (c *Collector) RecordSegmentSearch(duration time.Duration, err error) {
	c.segmentSearches.WithLabelValues(status(err)).Inc()
	c.segmentDuration.Observe(duration.Seconds())
}

// RecordMaskAssembly implements segquery.MetricsCollector.
func (c *Collector) RecordMaskAssembly(shards, bits int, duration time.Duration) {
	c.assemblies.Inc()
	c.assemblyShards.Add(float64(shards))
	c.assemblyBits.Add(float64(bits))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
