package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/metrics"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPaymentMethod is recorded when the gateway does not name one
const DefaultPaymentMethod = "GATEWAY"

// Compile-time check to ensure SettlementServiceImpl implements SettlementService
var _ SettlementService = (*SettlementServiceImpl)(nil)

// SettlementServiceImpl converts a PENDING order into a sale
type SettlementServiceImpl struct {
	txm    repositories.TxManager
	orders repositories.OrderRepository
	clock  clock.Clock
}

// NewSettlementService creates a new SettlementServiceImpl
func NewSettlementService(txm repositories.TxManager, orders repositories.OrderRepository, clk clock.Clock) *SettlementServiceImpl {
	return &SettlementServiceImpl{txm: txm, orders: orders, clock: clk}
}

// ConfirmPayment implements SettlementService. An order past expireAt that the
// sweep has not reached yet is still settled.
func (s *SettlementServiceImpl) ConfirmPayment(ctx context.Context, in PaymentConfirmation) (*models.OrderDetail, error) {
	if strings.TrimSpace(in.OrderID) == "" {
		return nil, apperrors.Validation("INVALID_ORDER", "order id is required")
	}
	if in.Amount.IsNegative() {
		return nil, apperrors.Validation("INVALID_AMOUNT", "amount must not be negative")
	}
	method := in.Method
	if method == "" {
		method = DefaultPaymentMethod
	}

	var alreadyPaid bool
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		alreadyPaid = false
		now := s.clock.Now()

		// 1. Lock the order first, tickets second, like every other writer
		order, err := tx.LockOrder(ctx, in.OrderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("order", in.OrderID)
			}
			return err
		}
		switch order.Status {
		case models.OrderStatusPaid:
			alreadyPaid = true
			return nil
		case models.OrderStatusExpired:
			return apperrors.ErrOrderExpired
		case models.OrderStatusCancelled:
			return apperrors.ErrOrderNotPending
		}
		if !in.Amount.IsZero() && !in.Amount.Equal(order.TotalAmount) {
			return apperrors.Validation("AMOUNT_MISMATCH", "paid amount %s does not match order total %s", in.Amount, order.TotalAmount)
		}

		// 2. Flip the order
		ok, err := tx.SetOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrOrderNotPending
		}

		// 3. Every ticket of the order must still be RESERVED
		ids, err := tx.OrderTicketIDs(ctx, order.ID)
		if err != nil {
			return err
		}
		if _, err := tx.LockTickets(ctx, ids); err != nil {
			return err
		}
		n, err := tx.SetTicketStatus(ctx, ids, models.TicketStatusReserved, models.TicketStatusSold, now)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("order %s: only %d of %d tickets were reserved", order.ID, n, len(ids))
		}

		// 4. Append the settlement record
		return tx.InsertPayment(ctx, &models.Payment{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Amount:    order.TotalAmount,
			Method:    method,
			Status:    models.PaymentStatusSuccess,
			Reference: in.Reference,
			PaidAt:    now,
			CreatedAt: now,
		})
	})
	if err != nil {
		metrics.RecordSettlement("fail")
		if apperrors.KindOf(err) == apperrors.KindInternal {
			logger.FromContext(ctx).Error("payment settlement failed", zap.String("orderId", in.OrderID), zap.Error(err))
		}
		return nil, err
	}

	if alreadyPaid {
		metrics.RecordSettlement("duplicate")
		logger.FromContext(ctx).Info("payment already settled", zap.String("orderId", in.OrderID))
	} else {
		metrics.RecordSettlement("paid")
		logger.FromContext(ctx).Info("order paid", zap.String("orderId", in.OrderID), zap.String("method", method))
	}

	detail, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, translate(err, "order", in.OrderID)
	}
	return detail, nil
}
