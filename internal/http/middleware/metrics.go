// Package middleware contains the shared Gin middleware of the HTTP layer.
//
// Prometheus instrumentation. The HTTP middleware keeps label cardinality
// bounded by using the registered Gin route as the path label. On top of the
// generic HTTP collectors this file exports two counters for the streaming
// turn pipeline, since a turn's cost is dominated by deltas, not requests.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// turnStreams counts finished streaming turns by outcome
	// (completed, failed, aborted, rejected).
	turnStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turn_streams_total",
			Help: "Total number of streaming turns by outcome.",
		},
		[]string{"outcome"},
	)

	// turnDeltas counts model deltas forwarded to clients.
	turnDeltas = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "turn_stream_deltas_total",
			Help: "Total number of streamed deltas forwarded to clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, turnStreams, turnDeltas)
}

// Metrics instruments every request with the HTTP collectors. Mount the
// /metrics endpoint separately via promhttp.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CountTurnOutcome records a finished streaming turn.
func CountTurnOutcome(outcome string) {
	turnStreams.WithLabelValues(outcome).Inc()
}

// CountTurnDelta records one forwarded delta.
func CountTurnDelta() {
	turnDeltas.Inc()
}
