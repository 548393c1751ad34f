package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/locker"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/metrics"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/notifier"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time check to ensure AnnouncementServiceImpl implements AnnouncementService
var _ AnnouncementService = (*AnnouncementServiceImpl)(nil)

// AnnouncementOptions tunes the bulk settlement of a round
type AnnouncementOptions struct {
	BatchSize         int
	NotifyConcurrency int
	LockTTL           time.Duration
}

// AnnouncementServiceImpl stores a round's winning numbers and settles the prize
// of every sold ticket.
type AnnouncementServiceImpl struct {
	rounds      repositories.RoundRepository
	tickets     repositories.TicketRepository
	orders      repositories.OrderRepository
	matcher     *prize.Matcher
	notifier    notifier.Notifier
	locker      locker.Locker
	clock       clock.Clock
	batchSize   int
	concurrency int
	lockTTL     time.Duration
}

// NewAnnouncementService creates a new AnnouncementServiceImpl
func NewAnnouncementService(
	rounds repositories.RoundRepository,
	tickets repositories.TicketRepository,
	orders repositories.OrderRepository,
	matcher *prize.Matcher,
	n notifier.Notifier,
	lk locker.Locker,
	clk clock.Clock,
	opts AnnouncementOptions,
) *AnnouncementServiceImpl {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.NotifyConcurrency <= 0 {
		opts.NotifyConcurrency = 8
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &AnnouncementServiceImpl{
		rounds:      rounds,
		tickets:     tickets,
		orders:      orders,
		matcher:     matcher,
		notifier:    n,
		locker:      lk,
		clock:       clk,
		batchSize:   opts.BatchSize,
		concurrency: opts.NotifyConcurrency,
		lockTTL:     opts.LockTTL,
	}
}

type winner struct {
	ticket *models.Ticket
	owner  string
	result prize.Result
}

// Announce implements AnnouncementService. Re-running it with the same numbers
// resumes an interrupted run: tickets already checked since the draw are skipped.
// A winning ticket whose order is no longer PAID (refunded) is settled with no
// award.
func (s *AnnouncementServiceImpl) Announce(ctx context.Context, roundID int64, wn models.WinningNumberSet) (*AnnouncementReport, error) {
	if err := wn.Validate(); err != nil {
		return nil, apperrors.Validation("INVALID_WINNING_NUMBERS", "invalid winning numbers: %v", err)
	}

	release, ok, err := s.locker.TryLock(ctx, redis.LockKey(fmt.Sprintf("announce:%d", roundID)), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire announcement lock: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrAnnounceInProgress
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.Warn("announce: release lock failed", zap.Int64("roundId", roundID), zap.Error(err))
		}
	}()

	// 1. Persist the result on the round
	round, err := s.markDrawn(ctx, roundID, wn)
	if err != nil {
		return nil, err
	}
	drawnAt := *round.DrawnAt
	numbers := *round.WinningNumbers

	log := logger.FromContext(ctx).With(zap.Int64("roundId", roundID))
	log.Info("announcing round", zap.Time("drawnAt", drawnAt), zap.String("firstPrize", numbers.FirstPrize))

	// 2. Settle sold tickets page by page
	report := &AnnouncementReport{RoundID: roundID, DrawnAt: drawnAt, TotalPrize: decimal.Zero}
	var after int64
	for {
		page, err := s.tickets.List(ctx, repositories.TicketFilter{
			RoundID: roundID,
			Status:  models.TicketStatusSold,
			AfterID: after,
			Limit:   s.batchSize,
		})
		if err != nil {
			return report, fmt.Errorf("failed to list sold tickets: %w", err)
		}

		var winners []winner
		for _, t := range page {
			after = t.ID
			if t.PrizeCheckedAt != nil && !t.PrizeCheckedAt.Before(drawnAt) {
				report.Skipped++
				metrics.RecordAnnouncedTicket("skipped")
				continue
			}

			res := s.matcher.Match(t.Number, numbers)
			var owner string
			if res.IsWinner {
				paidOwner, found, err := s.orders.FindPaidOwner(ctx, t.ID)
				if err != nil {
					return report, fmt.Errorf("failed to find owner of ticket %d: %w", t.ID, err)
				}
				if !found {
					res = prize.Result{Tiers: []prize.Tier{}, TotalAmount: decimal.Zero}
					report.Voided++
					metrics.RecordAnnouncedTicket("voided")
				}
				owner = paidOwner
			}
			checkedAt := s.clock.Now()
			if checkedAt.Before(drawnAt) {
				checkedAt = drawnAt
			}
			err := s.tickets.SavePrize(ctx, t.ID, models.PrizeResult{
				Amount:    res.TotalAmount,
				Tiers:     res.TierNames(),
				CheckedAt: checkedAt,
			})
			if err != nil {
				return report, fmt.Errorf("failed to save prize of ticket %d: %w", t.ID, err)
			}
			report.Processed++
			metrics.RecordAnnouncedTicket("processed")
			if res.IsWinner {
				report.Winners++
				report.TotalPrize = report.TotalPrize.Add(res.TotalAmount)
				metrics.RecordAnnouncedTicket("winner")
				winners = append(winners, winner{ticket: t, owner: owner, result: res})
			}
		}

		// 3. Tell the winners of this page
		report.NotifyFailures += s.notifyWinners(ctx, roundID, winners)

		if len(page) < s.batchSize {
			break
		}
	}

	log.Info("round announced",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("winners", report.Winners),
		zap.Int("voided", report.Voided),
		zap.String("totalPrize", report.TotalPrize.String()),
		zap.Int("notifyFailures", report.NotifyFailures))
	return report, nil
}

// markDrawn moves the round to DRAWN or checks that an earlier draw used the same
// numbers.
func (s *AnnouncementServiceImpl) markDrawn(ctx context.Context, roundID int64, wn models.WinningNumberSet) (*models.Round, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return nil, translate(err, "round", roundID)
	}
	if round.Status != models.RoundStatusDrawn {
		if _, err := s.rounds.MarkDrawn(ctx, roundID, wn, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("failed to mark round %d drawn: %w", roundID, err)
		}
		if round, err = s.rounds.FindByID(ctx, roundID); err != nil {
			return nil, translate(err, "round", roundID)
		}
	}
	if round.WinningNumbers == nil || round.DrawnAt == nil || !round.WinningNumbers.Equal(wn) {
		return nil, apperrors.ErrRoundAlreadyDrawn
	}
	return round, nil
}

// notifyWinners sends win notifications with bounded concurrency and returns the
// number of failures.
func (s *AnnouncementServiceImpl) notifyWinners(ctx context.Context, roundID int64, winners []winner) int {
	if s.notifier == nil || len(winners) == 0 {
		return 0
	}
	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, w := range winners {
		w := w
		g.Go(func() error {
			payload := map[string]any{
				"roundId":  roundID,
				"ticketId": w.ticket.ID,
				"number":   w.ticket.Number,
				"tiers":    w.result.TierNames(),
				"amount":   w.result.TotalAmount.String(),
			}
			if err := s.notifier.Notify(gctx, w.owner, models.EventTicketWon, payload); err != nil {
				failures.Add(1)
				metrics.RecordWinnerNotification("fail")
				logger.Warn("announce: winner notification failed", zap.Int64("ticketId", w.ticket.ID), zap.Error(err))
				return nil
			}
			metrics.RecordWinnerNotification("sent")
			return nil
		})
	}
	_ = g.Wait()
	return int(failures.Load())
}
