// Package worker runs the background jobs of the API process.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/services"
)

// StartReaper sweeps expired orders every interval until ctx is cancelled. The
// goroutine is registered on wg so shutdown can wait for a sweep in flight.
func StartReaper(ctx context.Context, wg *sync.WaitGroup, expiry services.ExpiryService, interval time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Info("reaper started", zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("reaper stopped")
				return
			case <-ticker.C:
				runSweep(ctx, expiry)
			}
		}
	}()
}

func runSweep(ctx context.Context, expiry services.ExpiryService) {
	report, err := expiry.Sweep(ctx)
	switch {
	case errors.Is(err, apperrors.ErrSweepInProgress):
		logger.Debug("reaper: tick skipped, sweep already running")
	case errors.Is(err, context.Canceled):
	case err != nil:
		logger.Warn("reaper: sweep failed", zap.Error(err))
	case report.Expired > 0 || report.Failed > 0 || report.Warned > 0:
		logger.Info("reaper: sweep done",
			zap.Int("expired", report.Expired),
			zap.Int("ticketsReleased", report.TicketsReleased),
			zap.Int("failed", report.Failed),
			zap.Int("warned", report.Warned),
		)
	}
}
