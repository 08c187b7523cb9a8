// Package telemetry holds the Prometheus instrumentation shared by the
// adapter, the cache, the coordinators, and the HTTP surface.
//
// Collectors live on a private registry so tests can construct as many
// Metrics values as they like without duplicate-registration panics; the
// registry is exposed through Handler() for the /metrics endpoint.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the upstream and cache counters.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeEmpty        = "empty"
	OutcomeNoCredential = "no_credential"
	OutcomeHit          = "hit"
	OutcomeMiss         = "miss"
)

// Metrics is the set of service collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	upstream     *prometheus.CounterVec
	cacheOps     *prometheus.CounterVec
	priceTiers   *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellwether",
			Name:      "http_requests_total",
			Help:      "Requests served, by route pattern, method, and status code.",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bellwether",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellwether",
			Name:      "upstream_requests_total",
			Help:      "Vendor fetches by venue, endpoint kind, and outcome.",
		}, []string{"venue", "kind", "outcome"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellwether",
			Name:      "cache_ops_total",
			Help:      "Cache operations by namespace, op, and outcome.",
		}, []string{"namespace", "op", "outcome"}),
		priceTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellwether",
			Name:      "price_tier_total",
			Help:      "Bellwether answers produced, by winning tier.",
		}, []string{"tier"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.upstream,
		m.cacheOps,
		m.priceTiers,
	)
	return m
}

// ObserveHTTP records one served request against its route pattern.
func (m *Metrics) ObserveHTTP(path, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// UpstreamRequest records one vendor fetch attempt.
func (m *Metrics) UpstreamRequest(venue, kind, outcome string) {
	m.upstream.WithLabelValues(venue, kind, outcome).Inc()
}

// CacheOp records one cache read or write.
func (m *Metrics) CacheOp(namespace, op, outcome string) {
	m.cacheOps.WithLabelValues(namespace, op, outcome).Inc()
}

// PriceTier records which tier answered a pricing request.
func (m *Metrics) PriceTier(tier int) {
	m.priceTiers.WithLabelValues(strconv.Itoa(tier)).Inc()
}

// Handler serves the Prometheus exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
