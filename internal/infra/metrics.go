package infra

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a conversion run did. Counters are plain atomics so the
// hotpath never touches a registry; the registry reads them through func collectors
// and can be exported with WriteTextfile for the node-exporter textfile collector.
type Metrics struct {
	// Counters
	rowsRead    atomic.Uint64
	rowsSkipped atomic.Uint64
	rowsFailed  atomic.Uint64
	emitted     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	bidLevels atomic.Int64
	askLevels atomic.Int64
	orders    atomic.Int64

	registry *prometheus.Registry
	events   *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mbp_events_processed_total",
			Help: "MBO events applied to the book, by action",
		}, []string{"action"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mbp_apply_latency_ns",
			Help:    "Time to apply one event and materialize its snapshot",
			Buckets: prometheus.ExponentialBuckets(100, 2, 14),
		}),
	}

	counter := func(name, help string, v *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(v.Load()) })
	}
	gauge := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return float64(v.Load()) })
	}

	m.registry.MustRegister(
		m.events,
		m.latency,
		counter("mbp_rows_read_total", "Input rows decoded", &m.rowsRead),
		counter("mbp_rows_skipped_total", "Input rows dropped for having too few fields", &m.rowsSkipped),
		counter("mbp_rows_failed_total", "Input rows that failed to decode or apply", &m.rowsFailed),
		counter("mbp_rows_emitted_total", "Output rows written", &m.emitted),
		gauge("mbp_bid_levels", "Live bid price levels", &m.bidLevels),
		gauge("mbp_ask_levels", "Live ask price levels", &m.askLevels),
		gauge("mbp_live_orders", "Live resting orders", &m.orders),
	)
	return m
}

// RecordRow records a decoded input row.
func (m *Metrics) RecordRow() {
	m.rowsRead.Add(1)
}

// RecordSkipped records rows dropped by the reader.
func (m *Metrics) RecordSkipped(n uint64) {
	m.rowsSkipped.Add(n)
}

// RecordEmitted records a snapshot that every sink accepted.
func (m *Metrics) RecordEmitted() {
	m.emitted.Add(1)
}

// RecordFailure records a row that failed under the skip policy.
func (m *Metrics) RecordFailure() {
	m.rowsFailed.Add(1)
}

// RecordEvent records one applied event with its latency.
func (m *Metrics) RecordEvent(action string, latency time.Duration) {
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
	if m.events != nil {
		m.events.WithLabelValues(action).Inc()
		m.latency.Observe(float64(latency.Nanoseconds()))
	}
}

// SetBook records the current book size.
func (m *Metrics) SetBook(bidLevels, askLevels, orders int) {
	m.bidLevels.Store(int64(bidLevels))
	m.askLevels.Store(int64(askLevels))
	m.orders.Store(int64(orders))
}

// WriteTextfile exports the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RowsRead     uint64
	RowsSkipped  uint64
	RowsFailed   uint64
	Emitted      uint64
	AvgLatencyNs int64
	BidLevels    int64
	AskLevels    int64
	Orders       int64
	Timestamp    time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		RowsRead:     m.rowsRead.Load(),
		RowsSkipped:  m.rowsSkipped.Load(),
		RowsFailed:   m.rowsFailed.Load(),
		Emitted:      m.emitted.Load(),
		AvgLatencyNs: avgLatency,
		BidLevels:    m.bidLevels.Load(),
		AskLevels:    m.askLevels.Load(),
		Orders:       m.orders.Load(),
		Timestamp:    time.Now(),
	}
}

// Reset clears all counters and gauges (for testing).
func (m *Metrics) Reset() {
	m.rowsRead.Store(0)
	m.rowsSkipped.Store(0)
	m.rowsFailed.Store(0)
	m.emitted.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.SetBook(0, 0, 0)
	if m.events != nil {
		m.events.Reset()
	}
}
