package models

import "time"

// NotificationEvent identifies the kind of message delivered to a buyer
type NotificationEvent string

const (
	EventOrderExpiringSoon NotificationEvent = "order.expiring_soon"
	EventTicketWon         NotificationEvent = "ticket.won"
)

// Notification is a fire-and-forget message for one user
type Notification struct {
	UserID    string            `json:"userId"`
	Event     NotificationEvent `json:"event"`
	Payload   map[string]any    `json:"payload"`
	CreatedAt time.Time         `json:"createdAt"`
}
