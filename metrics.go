package zarrutil

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    listCounter      prometheus.Counter
//	    repairHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordList(arrays int, duration time.Duration, err error) {
//	    p.listCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordList is called after each store discovery operation.
	// arrays is the number of arrays found, duration is the time taken.
	RecordList(arrays int, duration time.Duration, err error)

	// RecordConsolidate is called after each consolidation operation.
	// entries is the number of metadata entries in the document.
	RecordConsolidate(entries int, duration time.Duration, err error)

	// RecordValidate is called after each validation operation.
	// issues is the number of issues found.
	RecordValidate(issues int, duration time.Duration, err error)

	// RecordRepair is called after each repair operation.
	// actions is the number of repair actions taken.
	RecordRepair(actions int, duration time.Duration, err error)

	// RecordOpenDataset is called after each dataset adapter operation.
	RecordOpenDataset(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordList(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordConsolidate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordValidate(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordRepair(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordOpenDataset(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ListCount           atomic.Int64
	ListErrors          atomic.Int64
	ListTotalNanos      atomic.Int64
	ConsolidateCount    atomic.Int64
	ConsolidateErrors   atomic.Int64
	ConsolidateEntries  atomic.Int64
	ValidateCount       atomic.Int64
	ValidateErrors      atomic.Int64
	ValidateIssues      atomic.Int64
	RepairCount         atomic.Int64
	RepairErrors        atomic.Int64
	RepairActions       atomic.Int64
	OpenDatasetCount    atomic.Int64
	OpenDatasetErrors   atomic.Int64
	OpenDatasetTotNanos atomic.Int64
}

// RecordList implements MetricsCollector.
func (b *BasicMetricsCollector) RecordList(arrays int, duration time.Duration, err error) {
	b.ListCount.Add(1)
	b.ListTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ListErrors.Add(1)
	}
}

// RecordConsolidate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConsolidate(entries int, duration time.Duration, err error) {
	b.ConsolidateCount.Add(1)
	b.ConsolidateEntries.Add(int64(entries))
	if err != nil {
		b.ConsolidateErrors.Add(1)
	}
}

// RecordValidate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordValidate(issues int, duration time.Duration, err error) {
	b.ValidateCount.Add(1)
	b.ValidateIssues.Add(int64(issues))
	if err != nil {
		b.ValidateErrors.Add(1)
	}
}

// RecordRepair implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRepair(actions int, duration time.Duration, err error) {
	b.RepairCount.Add(1)
	b.RepairActions.Add(int64(actions))
	if err != nil {
		b.RepairErrors.Add(1)
	}
}

// RecordOpenDataset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpenDataset(duration time.Duration, err error) {
	b.OpenDatasetCount.Add(1)
	b.OpenDatasetTotNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.OpenDatasetErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ListCount:          b.ListCount.Load(),
		ListErrors:         b.ListErrors.Load(),
		ListAvgNanos:       b.getAvgListNanos(),
		ConsolidateCount:   b.ConsolidateCount.Load(),
		ConsolidateErrors:  b.ConsolidateErrors.Load(),
		ConsolidateEntries: b.ConsolidateEntries.Load(),
		ValidateCount:      b.ValidateCount.Load(),
		ValidateErrors:     b.ValidateErrors.Load(),
		ValidateIssues:     b.ValidateIssues.Load(),
		RepairCount:        b.RepairCount.Load(),
		RepairErrors:       b.RepairErrors.Load(),
		RepairActions:      b.RepairActions.Load(),
		OpenDatasetCount:   b.OpenDatasetCount.Load(),
		OpenDatasetErrors:  b.OpenDatasetErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgListNanos() int64 {
	count := b.ListCount.Load()
	if count == 0 {
		return 0
	}
	return b.ListTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ListCount          int64
	ListErrors         int64
	ListAvgNanos       int64
	ConsolidateCount   int64
	ConsolidateErrors  int64
	ConsolidateEntries int64
	ValidateCount      int64
	ValidateErrors     int64
	ValidateIssues     int64
	RepairCount        int64
	RepairErrors       int64
	RepairActions      int64
	OpenDatasetCount   int64
	OpenDatasetErrors  int64
}
