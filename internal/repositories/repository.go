package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
)

// ErrNotFound is returned by every store when the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// TicketFilter selects tickets for paging. Results are ordered by ascending id and
// start strictly after AfterID.
type TicketFilter struct {
	RoundID int64
	Status  models.TicketStatus // empty matches every status
	AfterID int64
	Limit   int
}

// RoundRepository defines the interface for round data operations
type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	FindByID(ctx context.Context, id int64) (*models.Round, error)
	FindAll(ctx context.Context) ([]*models.Round, error)
	// UpdateStatus moves the round from one status to another and reports whether
	// the round was in the expected status.
	UpdateStatus(ctx context.Context, id int64, from, to models.RoundStatus, at time.Time) (bool, error)
	// MarkDrawn stores the winning numbers and sets status DRAWN unless the round is
	// already drawn.
	MarkDrawn(ctx context.Context, id int64, wn models.WinningNumberSet, at time.Time) (bool, error)
}

// TicketRepository defines the interface for ticket data operations outside the
// checkout transaction
type TicketRepository interface {
	CreateMany(ctx context.Context, tickets []*models.Ticket) error
	FindByID(ctx context.Context, id int64) (*models.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*models.Ticket, error)
	// DeleteAvailable removes the ticket only while it is AVAILABLE.
	DeleteAvailable(ctx context.Context, id int64) (bool, error)
	// SavePrize overwrites the prize fields of a ticket.
	SavePrize(ctx context.Context, id int64, res models.PrizeResult) error
}

// OrderRepository defines the interface for order queries
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*models.OrderDetail, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]*models.Order, error)
	// FindExpired returns PENDING orders whose expireAt is before now, oldest first.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Order, error)
	// FindExpiring returns PENDING orders expiring in [now, now+within), soonest first.
	FindExpiring(ctx context.Context, now time.Time, within time.Duration, limit int) ([]*models.Order, error)
	// FindPaidOwner returns the user of the PAID order holding the ticket.
	FindPaidOwner(ctx context.Context, ticketID int64) (string, bool, error)
}

// PaymentRepository defines the interface for payment queries
type PaymentRepository interface {
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

// Tx is the set of row-locking and conditional-update operations available inside
// one store transaction. Lock methods take exclusive locks that are held until the
// transaction ends.
type Tx interface {
	// LockTickets locks the named tickets in ascending id order. Missing ids are
	// absent from the result.
	LockTickets(ctx context.Context, ids []int64) ([]*models.Ticket, error)
	// SetTicketStatus updates the tickets still in status from and returns how many
	// rows changed.
	SetTicketStatus(ctx context.Context, ids []int64, from, to models.TicketStatus, at time.Time) (int64, error)
	FindRounds(ctx context.Context, ids []int64) (map[int64]*models.Round, error)

	InsertOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	// LockOrder locks a single order row.
	LockOrder(ctx context.Context, id string) (*models.Order, error)
	// SetOrderStatus changes the order status if it is still from. PaidAt is set
	// when moving to PAID.
	SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (bool, error)
	OrderTicketIDs(ctx context.Context, orderID string) ([]int64, error)

	InsertPayment(ctx context.Context, payment *models.Payment) error
}

// TxManager runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store groups the repositories of one storage backend
type Store struct {
	Rounds   RoundRepository
	Tickets  TicketRepository
	Orders   OrderRepository
	Payments PaymentRepository
	Tx       TxManager
	Close    func(ctx context.Context) error
}
