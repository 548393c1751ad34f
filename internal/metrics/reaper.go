package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reaperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaper_runs_total",
			Help: "Expiry sweeps by result",
		},
		[]string{"result"},
	)

	reaperOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reaper_orders_expired_total",
		Help: "Orders moved to EXPIRED by the sweep",
	})

	reaperTickets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reaper_tickets_released_total",
		Help: "Reserved tickets returned to inventory by the sweep",
	})

	expiryWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_warnings_total",
			Help: "Expiring-soon notifications by result",
		},
		[]string{"result"},
	)
)

// RecordSweep records one sweep; result is "success", "skipped" or "fail".
func RecordSweep(result string, orders, tickets int) {
	reaperRuns.WithLabelValues(result).Inc()
	reaperOrders.Add(float64(orders))
	reaperTickets.Add(float64(tickets))
}

// RecordWarning records one expiring-soon notification attempt
func RecordWarning(result string) {
	expiryWarnings.WithLabelValues(result).Inc()
}
