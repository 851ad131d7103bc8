package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Recovery metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	RetriesTotal            *prometheus.CounterVec
	FallbacksTotal          *prometheus.CounterVec
	CacheLookupsTotal       *prometheus.CounterVec
	DegradedResponsesTotal  prometheus.Counter
	BreakerOpensTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "contextcraft",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics on a private registry
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of provider invocations by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Provider invocation duration in seconds, retries included",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "outcome"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "retries_total",
				Help:      "Total number of retry attempts by provider",
			},
			[]string{"provider"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of successful fallback routings",
			},
			[]string{"from", "to"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "response_cache_lookups_total",
				Help:      "Last-resort response cache lookups by result",
			},
			[]string{"result"},
		),
		DegradedResponsesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "degraded_responses_total",
				Help:      "Total number of degraded static responses served",
			},
		),
		BreakerOpensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "circuit_breaker_opens_total",
				Help:      "Total number of circuit breaker open transitions",
			},
			[]string{"provider"},
		),
		registry: prometheus.NewRegistry(),
	}

	if config.Enabled {
		m.registry.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.ProviderRequestsTotal,
			m.ProviderRequestDuration,
			m.RetriesTotal,
			m.FallbacksTotal,
			m.CacheLookupsTotal,
			m.DegradedResponsesTotal,
			m.BreakerOpensTotal,
		)
	}

	return m
}

// RecordProviderRequest implements resilience.MetricsRecorder
func (m *Metrics) RecordProviderRequest(provider, outcome string, duration time.Duration) {
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider, outcome).Observe(duration.Seconds())
}

// RecordRetry implements resilience.MetricsRecorder
func (m *Metrics) RecordRetry(provider string) {
	m.RetriesTotal.WithLabelValues(provider).Inc()
}

// RecordFallback implements resilience.MetricsRecorder
func (m *Metrics) RecordFallback(from, to string) {
	m.FallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordCacheLookup implements resilience.MetricsRecorder
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordDegradedResponse implements resilience.MetricsRecorder
func (m *Metrics) RecordDegradedResponse() {
	m.DegradedResponsesTotal.Inc()
}

// RecordBreakerOpen implements resilience.MetricsRecorder
func (m *Metrics) RecordBreakerOpen(provider string) {
	m.BreakerOpensTotal.WithLabelValues(provider).Inc()
}

// Handler returns the Prometheus scrape handler for this registry
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMiddleware records HTTP request counts and latencies
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
