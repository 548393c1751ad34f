package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpReqDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"path", "method"},
	)
)

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpReqDuration.WithLabelValues(path, method).Observe(float64(time.Since(start).Milliseconds()))
		httpReqTotal.WithLabelValues(path, method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
