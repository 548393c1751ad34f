package mysql

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var (
	_ repositories.OrderRepository   = (*OrderRepository)(nil)
	_ repositories.PaymentRepository = (*PaymentRepository)(nil)
)

// OrderRepository handles MySQL operations for Order
type OrderRepository struct {
	db *sqlx.DB
}

// FindByID returns the order with its items and payment
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}

	var items []orderItemRow
	if err := r.db.SelectContext(ctx, &items,
		"SELECT order_id, ticket_id, price_at_purchase FROM order_items WHERE order_id = ? ORDER BY ticket_id", id); err != nil {
		return nil, errors.Wrap(err, "find order items")
	}
	detail := &models.OrderDetail{Order: row.model(), Items: make([]models.OrderItem, 0, len(items))}
	for _, it := range items {
		detail.Items = append(detail.Items, models.OrderItem{
			OrderID:         it.OrderID,
			TicketID:        it.TicketID,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	payment, err := findPayment(ctx, r.db, id)
	switch {
	case err == nil:
		detail.Payment = payment
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// FindByUser returns the user's orders, newest first
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE user_id = ? ORDER BY created_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "find user orders")
	}
	return orderModels(rows), nil
}

// FindExpired returns pending orders past their expiry, oldest first
func (r *OrderRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders WHERE status = ? AND expire_at < ? ORDER BY expire_at, id LIMIT ?",
		string(models.OrderStatusPending), now, limitOrAll(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find expired orders")
	}
	return orderModels(rows), nil
}

// FindExpiring returns pending orders expiring within the window, soonest first
func (r *OrderRepository) FindExpiring(ctx context.Context, now time.Time, within time.Duration, limit int) ([]*models.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders WHERE status = ? AND expire_at >= ? AND expire_at < ? ORDER BY expire_at, id LIMIT ?",
		string(models.OrderStatusPending), now, now.Add(within), limitOrAll(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find expiring orders")
	}
	return orderModels(rows), nil
}

// FindPaidOwner returns the owner of the paid order holding the ticket
func (r *OrderRepository) FindPaidOwner(ctx context.Context, ticketID int64) (string, bool, error) {
	var userID string
	err := r.db.GetContext(ctx, &userID,
		"SELECT o.user_id FROM order_items i JOIN orders o ON o.id = i.order_id WHERE i.ticket_id = ? AND o.status = ? LIMIT 1",
		ticketID, string(models.OrderStatusPaid),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "find paid owner")
	}
	return userID, true, nil
}

// limitOrAll maps a non-positive limit to an unbounded LIMIT
func limitOrAll(limit int) int64 {
	if limit <= 0 {
		return math.MaxInt64
	}
	return int64(limit)
}

// PaymentRepository handles MySQL operations for Payment
type PaymentRepository struct {
	db *sqlx.DB
}

// FindByOrderID returns the payment recorded for an order
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return findPayment(ctx, r.db, orderID)
}

func findPayment(ctx context.Context, q sqlx.QueryerContext, orderID string) (*models.Payment, error) {
	var row paymentRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+paymentColumns+" FROM payments WHERE order_id = ?", orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find payment")
	}
	return row.model(), nil
}
