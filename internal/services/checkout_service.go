package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/metrics"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultReservationTTL is how long a PENDING order holds its tickets
const DefaultReservationTTL = 15 * time.Minute

// Compile-time check to ensure CheckoutServiceImpl implements CheckoutService
var _ CheckoutService = (*CheckoutServiceImpl)(nil)

// CheckoutServiceImpl reserves tickets inside one store transaction. It performs
// no external calls so the locks are held briefly.
type CheckoutServiceImpl struct {
	txm   repositories.TxManager
	clock clock.Clock
	ttl   time.Duration
}

// NewCheckoutService creates a new CheckoutServiceImpl; a non-positive ttl uses
// DefaultReservationTTL.
func NewCheckoutService(txm repositories.TxManager, clk clock.Clock, ttl time.Duration) *CheckoutServiceImpl {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &CheckoutServiceImpl{txm: txm, clock: clk, ttl: ttl}
}

// Checkout implements CheckoutService
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, userID string, ticketIDs []int64) (*models.OrderDetail, error) {
	started := time.Now()
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Validation("INVALID_USER", "user id is required")
	}
	ids := normalizeIDs(ticketIDs)
	if len(ids) == 0 {
		return nil, apperrors.ErrEmptyRequest
	}

	var detail *models.OrderDetail
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		detail = nil
		now := s.clock.Now()

		locked, err := tx.LockTickets(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]*models.Ticket, len(locked))
		roundIDs := make([]int64, 0, 1)
		seenRound := map[int64]bool{}
		for _, t := range locked {
			byID[t.ID] = t
			if !seenRound[t.RoundID] {
				seenRound[t.RoundID] = true
				roundIDs = append(roundIDs, t.RoundID)
			}
		}
		rounds, err := tx.FindRounds(ctx, roundIDs)
		if err != nil {
			return err
		}

		var unavailable []int64
		for _, id := range ids {
			t := byID[id]
			if t == nil || t.Status != models.TicketStatusAvailable {
				unavailable = append(unavailable, id)
				continue
			}
			if r := rounds[t.RoundID]; r == nil || !r.IsSelling(now) {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return apperrors.NewTicketUnavailable(unavailable)
		}

		order := &models.Order{
			ID:        uuid.New().String(),
			UserID:    userID,
			Status:    models.OrderStatusPending,
			ExpireAt:  now.Add(s.ttl),
			CreatedAt: now,
			UpdatedAt: now,
		}
		items := make([]models.OrderItem, 0, len(ids))
		total := decimal.Zero
		for _, id := range ids {
			price := byID[id].Price
			total = total.Add(price)
			items = append(items, models.OrderItem{OrderID: order.ID, TicketID: id, PriceAtPurchase: price})
		}
		order.TotalAmount = total

		if err := tx.InsertOrder(ctx, order, items); err != nil {
			return err
		}
		n, err := tx.SetTicketStatus(ctx, ids, models.TicketStatusAvailable, models.TicketStatusReserved, now)
		if err != nil {
			return err
		}
		// stores without row locks fall back to the conditional update alone
		if n != int64(len(ids)) {
			return apperrors.NewTicketUnavailable(ids)
		}

		detail = &models.OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindConflict {
			metrics.RecordCheckout("conflict", started)
		} else {
			metrics.RecordCheckout("fail", started)
			logger.FromContext(ctx).Error("checkout failed", zap.String("userId", userID), zap.Int64s("ticketIds", ids), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordCheckout("success", started)
	logger.FromContext(ctx).Info("tickets reserved",
		zap.String("orderId", detail.Order.ID),
		zap.String("userId", userID),
		zap.Int64s("ticketIds", ids),
		zap.Time("expireAt", detail.Order.ExpireAt))
	return detail, nil
}

// normalizeIDs de-duplicates ids and sorts them ascending, the canonical lock order.
func normalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
