package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"go.uber.org/zap"
)

// Compile-time check to ensure OrderServiceImpl implements OrderService
var _ OrderService = (*OrderServiceImpl)(nil)

// OrderServiceImpl handles order queries and cancellation
type OrderServiceImpl struct {
	orders repositories.OrderRepository
	txm    repositories.TxManager
	clock  clock.Clock
}

// NewOrderService creates a new OrderServiceImpl
func NewOrderService(orders repositories.OrderRepository, txm repositories.TxManager, clk clock.Clock) *OrderServiceImpl {
	return &OrderServiceImpl{orders: orders, txm: txm, clock: clk}
}

// GetOrder returns an order with its items and payment
func (s *OrderServiceImpl) GetOrder(ctx context.Context, id string) (*models.OrderDetail, error) {
	detail, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "order", id)
	}
	return detail, nil
}

// ListOrders returns the most recent orders of a user
func (s *OrderServiceImpl) ListOrders(ctx context.Context, userID string, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	orders, err := s.orders.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CancelOrder cancels a PENDING order and returns its tickets to inventory, or
// records the refund of a PAID order whose tickets stay SOLD. Both are terminal.
func (s *OrderServiceImpl) CancelOrder(ctx context.Context, id string) (*models.OrderDetail, error) {
	var released int64
	var from models.OrderStatus
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		released = 0
		now := s.clock.Now()

		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("order", id)
			}
			return err
		}
		from = order.Status
		if from != models.OrderStatusPending && from != models.OrderStatusPaid {
			return apperrors.ErrOrderNotPending
		}
		ok, err := tx.SetOrderStatus(ctx, id, from, models.OrderStatusCancelled, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrOrderNotPending
		}
		if from == models.OrderStatusPaid {
			return nil
		}

		ids, err := tx.OrderTicketIDs(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.LockTickets(ctx, ids); err != nil {
			return err
		}
		released, err = tx.SetTicketStatus(ctx, ids, models.TicketStatusReserved, models.TicketStatusAvailable, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("order cancelled",
		zap.String("orderId", id),
		zap.String("previousStatus", string(from)),
		zap.Int64("ticketsReleased", released))
	return s.GetOrder(ctx, id)
}
