// Package metrics exposes Prometheus metrics for the cpcompare service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

const namespace = "cpcompare"

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	comparisons  prometheus.Counter
	rateLimited  prometheus.Counter
	savedPairOps *prometheus.CounterVec
}

// New creates Metrics registered on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		fetches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_fetches_total",
			Help:      "Platform profile fetches, by platform and outcome.",
		}, []string{"platform", "outcome"}),
		fetchDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "platform_fetch_duration_seconds",
			Help:      "Platform profile fetch latency, including retries.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"platform"}),
		comparisons: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Completed two-user comparisons.",
		}),
		rateLimited: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		savedPairOps: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_pair_operations_total",
			Help:      "Saved comparison pair operations, by operation.",
		}, []string{"op"}),
	}

	auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_cache_hits_total",
		Help:      "Upstream responses served from the HTTP cache.",
	}, func() float64 { return float64(httpcache.CacheStats().Hits) })
	auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_cache_misses_total",
		Help:      "Upstream responses fetched from the network.",
	}, func() float64 { return float64(httpcache.CacheStats().Misses) })

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFetch records one platform fetch. An empty kind means success.
// Its signature matches fetch.Observer.
func (m *Metrics) ObserveFetch(platform profile.Platform, kind profile.ErrorKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := string(kind)
	if outcome == "" {
		outcome = "ok"
	}
	m.fetches.WithLabelValues(string(platform), outcome).Inc()
	m.fetchDuration.WithLabelValues(string(platform)).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ComparisonDone counts a completed comparison.
func (m *Metrics) ComparisonDone() {
	if m == nil {
		return
	}
	m.comparisons.Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// SavedPairOp counts a saved-pair operation: "save", "list" or "delete".
func (m *Metrics) SavedPairOp(op string) {
	if m == nil {
		return
	}
	m.savedPairOps.WithLabelValues(op).Inc()
}
