package services

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/dedup"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/locker"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/metrics"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/notifier"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/redis"
	"go.uber.org/zap"
)

// DefaultWarningCheckpoints are the remaining-time marks of expiring-soon warnings
var DefaultWarningCheckpoints = []time.Duration{30 * time.Minute, 15 * time.Minute, 5 * time.Minute, time.Minute}

// Compile-time check to ensure ExpiryServiceImpl implements ExpiryService
var _ ExpiryService = (*ExpiryServiceImpl)(nil)

// ExpiryOptions tunes the sweep
type ExpiryOptions struct {
	BatchSize   int
	LockTTL     time.Duration
	Checkpoints []time.Duration
}

// ExpiryServiceImpl is the reaper. Sweeps never overlap: inside one process an
// atomic flag guards entry and across processes the shared locker does.
type ExpiryServiceImpl struct {
	orders      repositories.OrderRepository
	txm         repositories.TxManager
	clock       clock.Clock
	locker      locker.Locker
	dedup       dedup.Deduper
	notifier    notifier.Notifier
	batchSize   int
	lockTTL     time.Duration
	checkpoints []time.Duration // ascending
	running     atomic.Bool
}

// NewExpiryService creates a new ExpiryServiceImpl
func NewExpiryService(
	orders repositories.OrderRepository,
	txm repositories.TxManager,
	clk clock.Clock,
	lk locker.Locker,
	dd dedup.Deduper,
	n notifier.Notifier,
	opts ExpiryOptions,
) *ExpiryServiceImpl {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.Checkpoints == nil {
		opts.Checkpoints = DefaultWarningCheckpoints
	}
	cps := make([]time.Duration, 0, len(opts.Checkpoints))
	for _, cp := range opts.Checkpoints {
		if cp > 0 {
			cps = append(cps, cp)
		}
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })

	return &ExpiryServiceImpl{
		orders:      orders,
		txm:         txm,
		clock:       clk,
		locker:      lk,
		dedup:       dd,
		notifier:    n,
		batchSize:   opts.BatchSize,
		lockTTL:     opts.LockTTL,
		checkpoints: cps,
	}
}

// Sweep implements ExpiryService. It returns ErrSweepInProgress when another run
// holds the lock.
func (s *ExpiryServiceImpl) Sweep(ctx context.Context) (*SweepReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.RecordSweep("skipped", 0, 0)
		return nil, apperrors.ErrSweepInProgress
	}
	defer s.running.Store(false)

	release, ok, err := s.locker.TryLock(ctx, redis.LockKey("reaper"), s.lockTTL)
	if err != nil {
		metrics.RecordSweep("fail", 0, 0)
		return nil, fmt.Errorf("failed to acquire reaper lock: %w", err)
	}
	if !ok {
		metrics.RecordSweep("skipped", 0, 0)
		return nil, apperrors.ErrSweepInProgress
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.Warn("reaper: release lock failed", zap.Error(err))
		}
	}()

	now := s.clock.Now()
	report := &SweepReport{}
	for {
		batch, err := s.orders.FindExpired(ctx, now, s.batchSize)
		if err != nil {
			metrics.RecordSweep("fail", report.Expired, report.TicketsReleased)
			return report, fmt.Errorf("failed to list expired orders: %w", err)
		}

		handled := 0
		for _, o := range batch {
			expired, released, err := s.expireOrder(ctx, o.ID, now)
			if err != nil {
				report.Failed++
				logger.Error("reaper: expire order failed", zap.String("orderId", o.ID), zap.Error(err))
				continue
			}
			handled++
			if expired {
				report.Expired++
				report.TicketsReleased += released
			}
		}
		// a short batch is the last one; a batch of pure failures would repeat forever
		if len(batch) < s.batchSize || handled == 0 {
			break
		}
	}

	report.Warned = s.WarnExpiring(ctx)
	metrics.RecordSweep("success", report.Expired, report.TicketsReleased)
	if report.Expired > 0 || report.Failed > 0 {
		logger.Info("reaper: sweep finished",
			zap.Int("expired", report.Expired),
			zap.Int("ticketsReleased", report.TicketsReleased),
			zap.Int("failed", report.Failed),
			zap.Int("warned", report.Warned))
	}
	return report, nil
}

// expireOrder expires one order and frees the tickets that are still RESERVED.
// Tickets that reached SOLD are left alone.
func (s *ExpiryServiceImpl) expireOrder(ctx context.Context, orderID string, now time.Time) (bool, int, error) {
	var expired bool
	var released int
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		expired, released = false, 0

		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending || !order.ExpireAt.Before(now) {
			return nil
		}
		ok, err := tx.SetOrderStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusExpired, now)
		if err != nil || !ok {
			return err
		}

		ids, err := tx.OrderTicketIDs(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := tx.LockTickets(ctx, ids); err != nil {
			return err
		}
		n, err := tx.SetTicketStatus(ctx, ids, models.TicketStatusReserved, models.TicketStatusAvailable, now)
		if err != nil {
			return err
		}
		expired, released = true, int(n)
		return nil
	})
	return expired, released, err
}

// WarnExpiring implements ExpiryService. Each order gets at most one warning per
// checkpoint, for the smallest checkpoint its remaining time falls under. Runs
// spaced wider than the checkpoint gaps skip checkpoints; failures are logged only.
func (s *ExpiryServiceImpl) WarnExpiring(ctx context.Context) int {
	if s.notifier == nil || s.dedup == nil || len(s.checkpoints) == 0 {
		return 0
	}
	now := s.clock.Now()
	widest := s.checkpoints[len(s.checkpoints)-1]

	orders, err := s.orders.FindExpiring(ctx, now, widest+time.Second, s.batchSize)
	if err != nil {
		logger.Warn("reaper: list expiring orders failed", zap.Error(err))
		return 0
	}

	sent := 0
	for _, o := range orders {
		remaining := o.ExpireAt.Sub(now)
		cp, ok := checkpointFor(s.checkpoints, remaining)
		if !ok {
			continue
		}
		minutes := int(cp / time.Minute)
		key := redis.WarningKey(fmt.Sprintf("%s:%d", o.ID, minutes))
		first, err := s.dedup.FirstSeen(ctx, key, remaining+time.Minute)
		if err != nil {
			logger.Warn("reaper: warning dedup failed", zap.String("orderId", o.ID), zap.Error(err))
			metrics.RecordWarning("fail")
			continue
		}
		if !first {
			continue
		}
		payload := map[string]any{
			"orderId":     o.ID,
			"minutesLeft": minutes,
			"expireAt":    o.ExpireAt,
		}
		if err := s.notifier.Notify(ctx, o.UserID, models.EventOrderExpiringSoon, payload); err != nil {
			logger.Warn("reaper: expiring-soon notification failed", zap.String("orderId", o.ID), zap.Error(err))
			metrics.RecordWarning("fail")
			continue
		}
		metrics.RecordWarning("sent")
		sent++
	}
	return sent
}

// checkpointFor returns the smallest checkpoint not below remaining.
func checkpointFor(ascending []time.Duration, remaining time.Duration) (time.Duration, bool) {
	if remaining < 0 {
		return 0, false
	}
	for _, cp := range ascending {
		if remaining <= cp {
			return cp, true
		}
	}
	return 0, false
}
