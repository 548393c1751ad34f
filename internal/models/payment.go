package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusSuccess is the only status recorded by settlement
const PaymentStatusSuccess = "SUCCESS"

// Payment is the append-only settlement record of a paid order. There is at most
// one per order.
type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	Reference string          `json:"reference,omitempty"` // gateway transaction reference
	PaidAt    time.Time       `json:"paidAt"`
	CreatedAt time.Time       `json:"createdAt"`
}
