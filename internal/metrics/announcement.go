package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	announcedTickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "announcement_tickets_total",
			Help: "Sold tickets handled by round announcements by outcome",
		},
		[]string{"outcome"},
	)

	winnerNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winner_notifications_total",
			Help: "Winner notifications by result",
		},
		[]string{"result"},
	)
)

// RecordAnnouncedTicket records a ticket outcome: "processed", "skipped", "winner"
// or "voided".
func RecordAnnouncedTicket(outcome string) {
	announcedTickets.WithLabelValues(outcome).Inc()
}

// RecordWinnerNotification records a winner notification attempt
func RecordWinnerNotification(result string) {
	winnerNotifications.WithLabelValues(result).Inc()
}
