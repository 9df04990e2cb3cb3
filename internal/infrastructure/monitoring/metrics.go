package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by generation and persistence metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics for the planner.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Generation metrics
	GenerationCalls    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	// Plan metrics
	PlanSaves   *prometheus.CounterVec
	PlanExports *prometheus.CounterVec
	PlanLoads   *prometheus.CounterVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsExpired prometheus.Counter

	startTime time.Time
}

// NewMetrics creates a collector on its own registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),

		GenerationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_generation_calls_total",
				Help: "Total number of generation API calls",
			},
			[]string{"kind", "model", "outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_generation_duration_seconds",
				Help:    "Generation API call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"kind", "model"},
		),

		PlanSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_plan_saves_total",
				Help: "Total number of plan save attempts",
			},
			[]string{"outcome"},
		),
		PlanExports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_plan_exports_total",
				Help: "Total number of plan exports",
			},
			[]string{"format"},
		),
		PlanLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_plan_loads_total",
				Help: "Plan loads by source (file or default)",
			},
			[]string{"source"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_sessions_active",
				Help: "Number of live sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_sessions_expired_total",
				Help: "Total number of sessions evicted for inactivity",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "planner_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGeneration records one generation call.
func (m *Metrics) RecordGeneration(kind, model string, failed bool, duration time.Duration) {
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.GenerationCalls.WithLabelValues(kind, model, outcome).Inc()
	m.GenerationDuration.WithLabelValues(kind, model).Observe(duration.Seconds())
}

// RecordSave records a plan save attempt.
func (m *Metrics) RecordSave(err error) {
	if err != nil {
		m.PlanSaves.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.PlanSaves.WithLabelValues(OutcomeOK).Inc()
}

// RecordExport records a plan export.
func (m *Metrics) RecordExport(format string) {
	m.PlanExports.WithLabelValues(format).Inc()
}

// RecordLoad records where a session's initial plan came from.
func (m *Metrics) RecordLoad(source string) {
	m.PlanLoads.WithLabelValues(source).Inc()
}

// SetSessionsActive sets the number of live sessions.
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// IncSessionsCreated increments the created sessions counter.
func (m *Metrics) IncSessionsCreated() {
	m.SessionsCreated.Inc()
}

// AddSessionsExpired adds evicted sessions to the expired counter.
func (m *Metrics) AddSessionsExpired(n int) {
	m.SessionsExpired.Add(float64(n))
}
