// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing used by the sync passes, the fetch client and the notification
// fan-out. A nil *Metrics or *Tracer is valid and records nothing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xraph/vexsync/internal/entity"
)

const namespace = "vexsync"

// Metrics holds the vexsync metric instruments.
type Metrics struct {
	PassesTotal        *prometheus.CounterVec
	PassDuration       *prometheus.HistogramVec
	RecordsTotal       *prometheus.CounterVec
	RecordsPruned      *prometheus.CounterVec
	FetchAttempts      *prometheus.CounterVec
	RateLimitWaits     prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	JobsSkipped        *prometheus.CounterVec
}

// NewMetrics creates the instruments and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Sync passes by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of sync passes by kind.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"kind"}),
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_total",
			Help:      "Records written by kind and change classification.",
		}, []string{"kind", "change"}),
		RecordsPruned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_pruned_total",
			Help:      "Stale records deleted by kind.",
		}, []string{"kind"}),
		FetchAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "fetch_attempts_total",
			Help:      "Remote fetch attempts by outcome.",
		}, []string{"outcome"}),
		RateLimitWaits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "rate_limit_waits_total",
			Help:      "Times a 429 response made the client wait.",
		}),
		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Channel deliveries by outcome.",
		}, []string{"outcome"}),
		JobsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "jobs_skipped_total",
			Help:      "Job ticks skipped because a run was in progress or locked elsewhere.",
		}, []string{"job", "reason"}),
	}
}

// RecordPass records a finished sync pass.
func (m *Metrics) RecordPass(kind string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.PassesTotal.WithLabelValues(kind, outcome).Inc()
	m.PassDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordChange records one written record.
func (m *Metrics) RecordChange(kind string, c entity.Change) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(kind, c.String()).Inc()
}

// RecordPruned records n deleted records.
func (m *Metrics) RecordPruned(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsPruned.WithLabelValues(kind).Add(float64(n))
}

// RecordFetch records one fetch attempt ("ok", "retry", "rate_limited", "not_found", "failed").
func (m *Metrics) RecordFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(outcome).Inc()
	if outcome == "rate_limited" {
		m.RateLimitWaits.Inc()
	}
}

// RecordNotification records one channel delivery.
func (m *Metrics) RecordNotification(err error) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSkippedJob records a skipped scheduler tick.
func (m *Metrics) RecordSkippedJob(job, reason string) {
	if m == nil {
		return
	}
	m.JobsSkipped.WithLabelValues(job, reason).Inc()
}
