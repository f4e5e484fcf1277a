// Package metrics holds the Prometheus collectors for upstream calls,
// ingestion and quota refills.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipestock"

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamAttempts *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	ingested         *prometheus.CounterVec
	quotaRefills     prometheus.Counter
	quotaExhausted   prometheus.Counter
}

// New creates collectors and registers them in a fresh registry together
// with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		upstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Upstream HTTP attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream operations including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_recipes_total",
			Help:      "Recipes processed by the ingestion pipeline by result.",
		}, []string{"source", "result"}),
		quotaRefills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_refills_total",
			Help:      "Quota refills applied at a boundary crossing.",
		}),
		quotaExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_exhausted_total",
			Help:      "Ingestion calls stopped by an empty quota.",
		}),
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.upstreamAttempts,
		m.upstreamDuration,
		m.ingested,
		m.quotaRefills,
		m.quotaExhausted,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// UpstreamAttempt records one HTTP attempt against an upstream endpoint.
// Outcome is "ok", "retry" or "fail".
func (m *Metrics) UpstreamAttempt(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.upstreamAttempts.WithLabelValues(endpoint, outcome).Inc()
}

// UpstreamDuration records the total time of an upstream operation.
func (m *Metrics) UpstreamDuration(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(endpoint).Observe(seconds)
}

// Ingested adds n items with the given result ("added", "skipped") for a source
// ("category", "recipe").
func (m *Metrics) Ingested(source, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingested.WithLabelValues(source, result).Add(float64(n))
}

// QuotaRefilled records a refill.
func (m *Metrics) QuotaRefilled() {
	if m == nil {
		return
	}
	m.quotaRefills.Inc()
}

// QuotaExhausted records an ingestion stopped by an empty balance.
func (m *Metrics) QuotaExhausted() {
	if m == nil {
		return
	}
	m.quotaExhausted.Inc()
}
