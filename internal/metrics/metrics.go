// Package metrics collects client-side telemetry: backend requests and
// remote-data cache activity. It wraps Prometheus collectors on a private
// registry so tests and multiple clients never collide.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides client metrics collection.
type Collector struct {
	registry *prometheus.Registry

	// Backend requests
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Remote-data cache
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheFetches    *prometheus.CounterVec
	cacheErrors     *prometheus.CounterVec
	cacheDiscarded  *prometheus.CounterVec
	cacheSubscribed prometheus.Gauge
}

// NewCollector creates a collector. An empty namespace defaults to "kotconnect".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "kotconnect"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend requests",
		},
		[]string{"method", "status"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method"},
	)

	c.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads served from cached data",
		},
		[]string{"resource"},
	)

	c.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that found no cached data",
		},
		[]string{"resource"},
	)

	c.cacheFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Fetcher invocations after deduplication",
		},
		[]string{"resource"},
	)

	c.cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetch_errors_total",
			Help:      "Fetcher invocations that failed",
		},
		[]string{"resource"},
	)

	c.cacheDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "discarded_total",
			Help:      "Fetch results dropped because a newer write superseded them",
		},
		[]string{"resource"},
	)

	c.cacheSubscribed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "subscriptions",
			Help:      "Open cache subscriptions",
		},
	)

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.cacheHits,
		c.cacheMisses,
		c.cacheFetches,
		c.cacheErrors,
		c.cacheDiscarded,
		c.cacheSubscribed,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one backend request.
func (c *Collector) ObserveRequest(method, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, status).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// CacheHit records a read served from cache.
func (c *Collector) CacheHit(resource string) {
	c.cacheHits.WithLabelValues(resource).Inc()
}

// CacheMiss records a read with nothing cached.
func (c *Collector) CacheMiss(resource string) {
	c.cacheMisses.WithLabelValues(resource).Inc()
}

// CacheFetch records one fetcher invocation and whether it failed.
func (c *Collector) CacheFetch(resource string, err error) {
	c.cacheFetches.WithLabelValues(resource).Inc()
	if err != nil {
		c.cacheErrors.WithLabelValues(resource).Inc()
	}
}

// CacheDiscard records a fetch result dropped as stale.
func (c *Collector) CacheDiscard(resource string) {
	c.cacheDiscarded.WithLabelValues(resource).Inc()
}

// SubscriptionOpened increments the open subscription gauge.
func (c *Collector) SubscriptionOpened() {
	c.cacheSubscribed.Inc()
}

// SubscriptionClosed decrements the open subscription gauge.
func (c *Collector) SubscriptionClosed() {
	c.cacheSubscribed.Dec()
}
