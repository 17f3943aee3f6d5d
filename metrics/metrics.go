// Package metrics exposes Prometheus collectors for HTTP traffic and calls
// to external collaborators (USDA, classifiers, image stores).
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// so services can be constructed without one in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	upstreamCall *prometheus.CounterVec
	upstreamTime *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calorietrack",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "calorietrack",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		upstreamCall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calorietrack",
			Name:      "upstream_calls_total",
			Help:      "Outbound calls by collaborator, operation and outcome.",
		}, []string{"collaborator", "operation", "outcome"}),
		upstreamTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "calorietrack",
			Name:      "upstream_call_duration_seconds",
			Help:      "Outbound call latency by collaborator and operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"collaborator", "operation"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calorietrack",
			Name:      "classifier_fallbacks_total",
			Help:      "Identify requests that fell back to manual search, by backend and reason.",
		}, []string{"backend", "reason"}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpDuration, m.upstreamCall, m.upstreamTime, m.fallbacks,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveUpstream records one outbound call.
func (m *Metrics) ObserveUpstream(collaborator, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCall.WithLabelValues(collaborator, operation, outcome).Inc()
	m.upstreamTime.WithLabelValues(collaborator, operation).Observe(time.Since(start).Seconds())
}

// Fallback counts an identify request that returned the manual-search result.
func (m *Metrics) Fallback(backend, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(backend, reason).Inc()
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
