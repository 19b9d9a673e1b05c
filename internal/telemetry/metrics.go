// Package telemetry exposes Prometheus metrics for the poll loop and the
// record browsers.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeDegraded  = "degraded"
	OutcomeDiscarded = "discarded"
)

// Query outcomes.
const (
	QueryOK    = "ok"
	QueryError = "error"
	QueryStale = "stale"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	CyclesTotal          *prometheus.CounterVec
	CycleDurationSeconds prometheus.Histogram
	CommittedSequence    prometheus.Gauge

	SourceRequestsTotal *prometheus.CounterVec
	SourceFailuresTotal *prometheus.CounterVec

	LiveTotal         prometheus.Gauge
	CongestionAverage prometheus.Gauge

	QueryRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etcmon_poll_cycles_total",
				Help: "Poll cycles by outcome",
			},
			[]string{"outcome"},
		),
		CycleDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "etcmon_poll_cycle_duration_seconds",
				Help:    "Time from issuing a poll cycle to all sources settling",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		CommittedSequence: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "etcmon_committed_sequence",
				Help: "Sequence number of the last committed poll cycle",
			},
		),
		SourceRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etcmon_source_requests_total",
				Help: "Backend requests issued per dashboard source",
			},
			[]string{"source"},
		),
		SourceFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etcmon_source_failures_total",
				Help: "Failed backend requests per dashboard source",
			},
			[]string{"source"},
		),
		LiveTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "etcmon_live_traffic_total",
				Help: "Trailing-window traffic total of the last committed cycle",
			},
		),
		CongestionAverage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "etcmon_congestion_index_average",
				Help: "Mean congestion index of the last committed cycle",
			},
		),
		QueryRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etcmon_query_requests_total",
				Help: "Record browser fetches by view and outcome",
			},
			[]string{"view", "outcome"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDurationSeconds,
		m.CommittedSequence,
		m.SourceRequestsTotal,
		m.SourceFailuresTotal,
		m.LiveTotal,
		m.CongestionAverage,
		m.QueryRequestsTotal,
	)

	return m
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSource counts one request to source and whether it failed.
func (m *Metrics) ObserveSource(source string, failed bool) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source).Inc()
	if failed {
		m.SourceFailuresTotal.WithLabelValues(source).Inc()
	}
}

// ObserveCycle records the outcome and duration of a poll cycle.
func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDurationSeconds.Observe(d.Seconds())
}

// SetCommitted records the values of a newly committed cycle.
func (m *Metrics) SetCommitted(seq uint64, liveTotal int, congestionAvg float64) {
	if m == nil {
		return
	}
	m.CommittedSequence.Set(float64(seq))
	m.LiveTotal.Set(float64(liveTotal))
	m.CongestionAverage.Set(congestionAvg)
}

// ObserveQuery counts one record browser fetch.
func (m *Metrics) ObserveQuery(view, outcome string) {
	if m == nil {
		return
	}
	m.QueryRequestsTotal.WithLabelValues(view, outcome).Inc()
}
