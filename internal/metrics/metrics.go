// Package metrics exposes Prometheus instrumentation for the console
// backend: HTTP traffic, query engine activity, and onboarding lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryRows     prometheus.Histogram

	PackagesIssued    prometheus.Counter
	PackagesDelivered prometheus.Counter
	PackagesRevoked   prometheus.Counter
	DeliveryDenied    *prometheus.CounterVec
}

// New registers all collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_queries_total",
			Help: "Executed queries by entity and outcome.",
		}, []string{"entity", "outcome"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_query_duration_seconds",
			Help:    "Query execution latency by entity.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"entity"}),
		QueryRows: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "console_query_rows",
			Help:    "Rows returned per executed query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),

		PackagesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_edge_packages_issued_total",
			Help: "Edge onboarding packages issued.",
		}),
		PackagesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_edge_packages_delivered_total",
			Help: "Edge onboarding packages delivered.",
		}),
		PackagesRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_edge_packages_revoked_total",
			Help: "Edge onboarding packages revoked.",
		}),
		DeliveryDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_edge_delivery_denied_total",
			Help: "Denied package downloads by reason.",
		}, []string{"reason"}),
	}
}

// ObserveQuery records one executed query.
func (m *Metrics) ObserveQuery(entity, outcome string, rows int, elapsed time.Duration) {
	m.QueriesTotal.WithLabelValues(entity, outcome).Inc()
	if outcome == "ok" {
		m.QueryDuration.WithLabelValues(entity).Observe(elapsed.Seconds())
		m.QueryRows.Observe(float64(rows))
	}
}

// GinMiddleware instruments every request, labeled by the matched route
// template so path parameters do not explode cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequests.WithLabelValues(method, route, status).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
