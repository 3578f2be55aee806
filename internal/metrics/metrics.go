// Package metrics exposes Prometheus collectors for the approval service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors. Each instance owns its own registry so
// tests can build several servers in one process.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	pending         prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "material_status_transitions_total",
				Help: "Material status changes by target status",
			},
			[]string{"status"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "material_uploads_total",
				Help: "Material uploads by outcome",
			},
			[]string{"result"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"result"},
		),
		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "materials_pending",
				Help: "Materials currently awaiting review",
			},
		),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.transitions,
		m.uploads,
		m.logins,
		m.pending,
	)
	return m
}

// RecordTransition counts a status change and refreshes the pending gauge.
func (m *Metrics) RecordTransition(status string, pending int) {
	m.transitions.WithLabelValues(status).Inc()
	m.pending.Set(float64(pending))
}

// RecordUpload counts an upload attempt.
func (m *Metrics) RecordUpload(ok bool, pending int) {
	m.uploads.WithLabelValues(result(ok)).Inc()
	if ok {
		m.pending.Set(float64(pending))
	}
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(ok bool) {
	m.logins.WithLabelValues(result(ok)).Inc()
}

// SetPending sets the pending gauge directly.
func (m *Metrics) SetPending(n int) {
	m.pending.Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
