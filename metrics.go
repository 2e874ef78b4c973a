package entigo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordBuild is called after each build or entities export.
	// count is the number of entities finalized.
	RecordBuild(count int, duration time.Duration, err error)

	// RecordSave is called after each snapshot save.
	// bytes is the number of bytes written.
	RecordSave(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount      atomic.Int64
	AddErrors     atomic.Int64
	AddTotalNanos atomic.Int64

	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildEntities   atomic.Int64
	BuildTotalNanos atomic.Int64

	SaveCount      atomic.Int64
	SaveErrors     atomic.Int64
	SaveTotalBytes atomic.Int64
}

func (m *BasicMetricsCollector) RecordAdd(d time.Duration, err error) {
	m.AddCount.Add(1)
	m.AddTotalNanos.Add(int64(d))
	if err != nil {
		m.AddErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordBuild(count int, d time.Duration, err error) {
	m.BuildCount.Add(1)
	m.BuildEntities.Add(int64(count))
	m.BuildTotalNanos.Add(int64(d))
	if err != nil {
		m.BuildErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordSave(bytes int64, d time.Duration, err error) {
	m.SaveCount.Add(1)
	m.SaveTotalBytes.Add(bytes)
	if err != nil {
		m.SaveErrors.Add(1)
	}
}
