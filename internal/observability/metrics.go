// README: Prometheus collectors for HTTP traffic, provider calls, fallbacks and the image cache.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voyage"

// Collector owns a private registry so tests can build as many as they like.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	providerCalls *prometheus.CounterVec
	providerTime  *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_provider_calls_total",
			Help:      "AI provider calls by task and outcome.",
		}, []string{"provider", "task", "outcome"}),
		providerTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_provider_call_duration_seconds",
			Help:      "AI provider call latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}, []string{"provider", "task"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_mock_fallbacks_total",
			Help:      "Responses served from mock data after a provider failure.",
		}, []string{"task"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_lookups_total",
			Help:      "Image cache lookups by result.",
		}, []string{"result"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.httpDuration,
		c.providerCalls, c.providerTime,
		c.fallbacks, c.cacheLookups,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveProviderCall records one provider round trip. outcome is "ok" or "error".
func (c *Collector) ObserveProviderCall(provider, task, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.providerCalls.WithLabelValues(provider, task, outcome).Inc()
	c.providerTime.WithLabelValues(provider, task).Observe(d.Seconds())
}

func (c *Collector) IncFallback(task string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(task).Inc()
}

func (c *Collector) ObserveCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}
