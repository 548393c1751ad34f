package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the state of a purchase order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusExpired || s == OrderStatusCancelled
}

// Order is a time-boxed purchase holding a set of reserved tickets
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	ExpireAt    time.Time       `json:"expireAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderItem freezes the price a ticket had when it was reserved. Items are never
// modified after creation.
type OrderItem struct {
	OrderID         string          `json:"orderId"`
	TicketID        int64           `json:"ticketId"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// OrderDetail is an order together with its line items and settlement record
type OrderDetail struct {
	Order   *Order      `json:"order"`
	Items   []OrderItem `json:"items"`
	Payment *Payment    `json:"payment,omitempty"`
}

// TicketIDs returns the ids of the tickets covered by the items.
func (d *OrderDetail) TicketIDs() []int64 {
	ids := make([]int64, 0, len(d.Items))
	for _, it := range d.Items {
		ids = append(ids, it.TicketID)
	}
	return ids
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return &c
}
