// Package metrics holds the Prometheus collectors exported on /metrics.
// Each Metrics value owns its registry, so tests can build as many as they
// like without duplicate-registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Outcome labels for login and collector creation.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeUnknown      = "unknown_collector"
	OutcomeInactive     = "inactive"
	OutcomeNoPassword   = "no_password"
	OutcomeWrongPass    = "wrong_password"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	LoginAttempts       *prometheus.CounterVec
	CollectorsCreated   *prometheus.CounterVec
	BatchesCreated      prometheus.Counter
	BatchedSubmissions  prometheus.Counter
	BatchNetAmount      prometheus.Counter
	SubmissionsReceived *prometheus.CounterVec
	SideEffectFailures  *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "datahub_login_attempts_total",
			Help: "Collector login attempts by outcome.",
		}, []string{"outcome"}),

		CollectorsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "datahub_collectors_created_total",
			Help: "Collector creation requests by outcome.",
		}, []string{"outcome"}),

		BatchesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "datahub_batches_created_total",
			Help: "Settlement batches committed.",
		}),

		BatchedSubmissions: f.NewCounter(prometheus.CounterOpts{
			Name: "datahub_batched_submissions_total",
			Help: "Submissions attached to a committed batch.",
		}),

		BatchNetAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "datahub_batch_net_amount_total",
			Help: "Sum of net amounts of committed batches.",
		}),

		SubmissionsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "datahub_submissions_received_total",
			Help: "Accepted submissions, split by attribution.",
		}, []string{"attributed"}),

		SideEffectFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "datahub_side_effect_failures_total",
			Help: "Failed best-effort batch side effects (event publish, statement archive).",
		}, []string{"kind"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datahub_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The Record* helpers are nil-safe so services can run without metrics.

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCollectorCreated(outcome string) {
	if m == nil {
		return
	}
	m.CollectorsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordBatch(count int, net decimal.Decimal) {
	if m == nil {
		return
	}
	m.BatchesCreated.Inc()
	m.BatchedSubmissions.Add(float64(count))
	m.BatchNetAmount.Add(net.InexactFloat64())
}

func (m *Metrics) RecordSubmission(attributed bool) {
	if m == nil {
		return
	}
	m.SubmissionsReceived.WithLabelValues(strconv.FormatBool(attributed)).Inc()
}

func (m *Metrics) RecordSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
