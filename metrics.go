package segquery

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see the promcollector package for a ready-made implementation.
type MetricsCollector interface {
	// RecordSearch is called after each fan-out search.
	// k is the number of neighbors requested per query, segments is the
	// number of segments searched, duration is the total time taken,
	// err is nil if successful.
	RecordSearch(k, segments int, duration time.Duration, err error)

	// RecordSegmentSearch is called after each per-segment search of the
	// fan-out.
	RecordSegmentSearch(duration time.Duration, err error)

	// RecordMaskAssembly is called after each selection mask assembly.
	// shards is the number of validity shards merged, bits is the total
	// record count covered.
	RecordMaskAssembly(shards, bits int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSegmentSearch(time.Duration, error)    {}
func (NoopMetricsCollector) RecordMaskAssembly(int, int, time.Duration)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount        atomic.Int64
	SearchErrors       atomic.Int64
	SearchTotalNanos   atomic.Int64
	SegmentCount       atomic.Int64
	SegmentErrors      atomic.Int64
	SegmentTotalNanos  atomic.Int64
	AssemblyCount      atomic.Int64
	AssemblyShards     atomic.Int64
	AssemblyBits       atomic.Int64
	AssemblyTotalNanos atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k, segments int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSegmentSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSegmentSearch(duration time.Duration, err error) {
	b.SegmentCount.Add(1)
	b.SegmentTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SegmentErrors.Add(1)
	}
}

// RecordMaskAssembly implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaskAssembly(shards, bits int, duration time.Duration) {
	b.AssemblyCount.Add(1)
	b.AssemblyShards.Add(int64(shards))
	b.AssemblyBits.Add(int64(bits))
	b.AssemblyTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchAvgNanos:  avgNanos(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SegmentCount:    b.SegmentCount.Load(),
		SegmentErrors:   b.SegmentErrors.Load(),
		SegmentAvgNanos: avgNanos(b.SegmentTotalNanos.Load(), b.SegmentCount.Load()),
		AssemblyCount:   b.AssemblyCount.Load(),
		AssemblyShards:  b.AssemblyShards.Load(),
		AssemblyBits:    b.AssemblyBits.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount     int64
	SearchErrors    int64
	SearchAvgNanos  int64
	SegmentCount    int64
	SegmentErrors   int64
	SegmentAvgNanos int64
	AssemblyCount   int64
	AssemblyShards  int64
	AssemblyBits    int64
}
