package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_requests_total",
			Help: "Total checkout attempts by result",
		},
		[]string{"result"},
	)

	checkoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_ms",
			Help:    "Checkout transaction duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"result"},
	)

	settlementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_requests_total",
			Help: "Total payment confirmations by result",
		},
		[]string{"result"},
	)
)

// RecordCheckout records one checkout call.
// result is "success", "conflict" or "fail".
func RecordCheckout(result string, started time.Time) {
	checkoutTotal.WithLabelValues(result).Inc()
	checkoutDuration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordSettlement records one payment confirmation; result is "paid",
// "duplicate" or "fail".
func RecordSettlement(result string) {
	settlementTotal.WithLabelValues(result).Inc()
}
