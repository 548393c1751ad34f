package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/shopspring/decimal"
)

// CheckoutService reserves tickets for a buyer
type CheckoutService interface {
	// Checkout reserves every named ticket or none of them and opens a PENDING order.
	Checkout(ctx context.Context, userID string, ticketIDs []int64) (*models.OrderDetail, error)
}

// SettlementService finalizes paid orders
type SettlementService interface {
	// ConfirmPayment marks the order PAID and its tickets SOLD. Confirming an
	// already paid order succeeds without changes.
	ConfirmPayment(ctx context.Context, in PaymentConfirmation) (*models.OrderDetail, error)
}

// ExpiryService reclaims abandoned reservations
type ExpiryService interface {
	// Sweep expires overdue PENDING orders and then sends expiring-soon warnings.
	Sweep(ctx context.Context) (*SweepReport, error)
	// WarnExpiring sends expiring-soon warnings and returns how many were sent.
	WarnExpiring(ctx context.Context) int
}

// AnnouncementService publishes round results and settles prizes
type AnnouncementService interface {
	Announce(ctx context.Context, roundID int64, wn models.WinningNumberSet) (*AnnouncementReport, error)
}

// RoundService manages rounds and answers number checks
type RoundService interface {
	CreateRound(ctx context.Context, in CreateRoundInput) (*models.Round, error)
	CloseRound(ctx context.Context, id int64) (*models.Round, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	ListRounds(ctx context.Context) ([]*models.Round, error)
	// CheckNumber matches a number against the round's winning numbers.
	CheckNumber(ctx context.Context, roundID int64, number string) (*prize.Result, error)
}

// TicketService manages the ticket inventory
type TicketService interface {
	UploadTickets(ctx context.Context, roundID int64, specs []models.TicketSpec) ([]*models.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	ListTickets(ctx context.Context, filter repositories.TicketFilter) ([]*models.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
}

// OrderService answers order queries and handles administrative cancellation
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*models.OrderDetail, error)
	ListOrders(ctx context.Context, userID string, limit int) ([]*models.Order, error)
	CancelOrder(ctx context.Context, id string) (*models.OrderDetail, error)
}

// PaymentConfirmation is the trusted signal from the payment gateway. A zero
// Amount skips the amount check.
type PaymentConfirmation struct {
	OrderID   string          `json:"orderId" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// CreateRoundInput holds the fields of a new round
type CreateRoundInput struct {
	Name           string    `json:"name" binding:"required"`
	DrawDate       time.Time `json:"drawDate" binding:"required"`
	OpenSellingAt  time.Time `json:"openSellingAt" binding:"required"`
	CloseSellingAt time.Time `json:"closeSellingAt" binding:"required"`
}

// SweepReport summarizes one expiry sweep
type SweepReport struct {
	Expired         int `json:"expired"`
	TicketsReleased int `json:"ticketsReleased"`
	Failed          int `json:"failed"`
	Warned          int `json:"warned"`
}

// AnnouncementReport summarizes one announcement run
type AnnouncementReport struct {
	RoundID        int64           `json:"roundId"`
	DrawnAt        time.Time       `json:"drawnAt"`
	Processed      int             `json:"processed"`
	Skipped        int             `json:"skipped"`
	Winners        int             `json:"winners"`
	Voided         int             `json:"voided"`
	TotalPrize     decimal.Decimal `json:"totalPrize"`
	NotifyFailures int             `json:"notifyFailures"`
}

// translate maps a store error to a NotFound error for entity, wrapping anything else.
func translate(err error, entity string, id any) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(entity, id)
	}
	return fmt.Errorf("failed to load %s %v: %w", entity, id, err)
}
