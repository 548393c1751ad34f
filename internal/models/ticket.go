package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus represents the inventory state of a physical ticket
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "AVAILABLE"
	TicketStatusReserved  TicketStatus = "RESERVED"
	TicketStatusSold      TicketStatus = "SOLD"
)

// TicketNumberLength is the fixed width of every ticket number
const TicketNumberLength = 6

// Ticket represents one physical ticket. Several tickets of a round may share a
// number; they are told apart by ID and grouped by SetSize.
type Ticket struct {
	ID             int64            `json:"id"`
	RoundID        int64            `json:"roundId"`
	Number         string           `json:"number"`
	Price          decimal.Decimal  `json:"price"`
	SetSize        int              `json:"setSize"`
	Status         TicketStatus     `json:"status"`
	PrizeAmount    *decimal.Decimal `json:"prizeAmount,omitempty"`
	PrizeTier      []string         `json:"prizeTier,omitempty"`
	PrizeCheckedAt *time.Time       `json:"prizeCheckedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// TicketSpec is one line of a bulk ticket upload
type TicketSpec struct {
	Number  string          `json:"number" binding:"required"`
	Price   decimal.Decimal `json:"price"`
	SetSize int             `json:"setSize"`
}

// PrizeResult is the persisted outcome of matching a sold ticket
type PrizeResult struct {
	Amount    decimal.Decimal
	Tiers     []string
	CheckedAt time.Time
}

// IsValidTicketNumber reports whether s is a fixed-width digit string.
func IsValidTicketNumber(s string) bool {
	if len(s) != TicketNumberLength {
		return false
	}
	return isDigits(s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the ticket
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	if t.PrizeAmount != nil {
		amt := *t.PrizeAmount
		c.PrizeAmount = &amt
	}
	if t.PrizeTier != nil {
		c.PrizeTier = append([]string{}, t.PrizeTier...)
	}
	if t.PrizeCheckedAt != nil {
		at := *t.PrizeCheckedAt
		c.PrizeCheckedAt = &at
	}
	return &c
}
