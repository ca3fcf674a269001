package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "confectionery"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	postalLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cep",
			Name:      "lookups_total",
			Help:      "Postal code lookups by outcome (found, not_found, failed, cached).",
		},
		[]string{"outcome"},
	)

	postalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cep",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of upstream postal code lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	blobOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "blob_operations_total",
			Help:      "Image store operations by kind and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	cascadeDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entities",
			Name:      "deleted_total",
			Help:      "Rows removed by delete operations, per entity.",
		},
		[]string{"entity"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		postalLookups,
		postalDuration,
		blobOperations,
		cascadeDeletes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordPostalLookup(outcome string, duration time.Duration) {
	postalLookups.WithLabelValues(outcome).Inc()
	if duration > 0 {
		postalDuration.Observe(duration.Seconds())
	}
}

func RecordBlobOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	blobOperations.WithLabelValues(operation, outcome).Inc()
}

func RecordDeleted(entity string, rows int64) {
	if rows > 0 {
		cascadeDeletes.WithLabelValues(entity).Add(float64(rows))
	}
}
