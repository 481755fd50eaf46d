// Package metrics exposes sandbox request and domain counters in the
// Prometheus text format.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	verifies     *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	transactions *prometheus.CounterVec
}

// New registers the sandbox collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletlink",
			Subsystem: "sandbox",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walletlink",
			Subsystem: "sandbox",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		verifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletlink",
			Subsystem: "sandbox",
			Name:      "otp_verifications_total",
			Help:      "OTP verifications by resulting connection status.",
		}, []string{"status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletlink",
			Subsystem: "sandbox",
			Name:      "token_refreshes_total",
			Help:      "Session refresh attempts by outcome.",
		}, []string{"outcome"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletlink",
			Subsystem: "sandbox",
			Name:      "transactions_total",
			Help:      "Transaction status transitions.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.verifies, m.refreshes, m.transactions)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) OTPVerified(status string) {
	m.verifies.WithLabelValues(status).Inc()
}

func (m *Metrics) Refreshed(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transaction(status string) {
	m.transactions.WithLabelValues(status).Inc()
}
