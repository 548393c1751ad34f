package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"go.uber.org/zap"
)

// Compile-time check to ensure RoundServiceImpl implements RoundService
var _ RoundService = (*RoundServiceImpl)(nil)

// RoundServiceImpl handles round administration
type RoundServiceImpl struct {
	rounds  repositories.RoundRepository
	matcher *prize.Matcher
	clock   clock.Clock
}

// NewRoundService creates a new RoundServiceImpl. matcher must be the instance
// used by the announcement service.
func NewRoundService(rounds repositories.RoundRepository, matcher *prize.Matcher, clk clock.Clock) *RoundServiceImpl {
	return &RoundServiceImpl{rounds: rounds, matcher: matcher, clock: clk}
}

// CreateRound creates an OPEN round
func (s *RoundServiceImpl) CreateRound(ctx context.Context, in CreateRoundInput) (*models.Round, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("INVALID_ROUND", "round name is required")
	}
	if !in.OpenSellingAt.Before(in.CloseSellingAt) {
		return nil, apperrors.Validation("INVALID_ROUND", "openSellingAt must be before closeSellingAt")
	}
	if in.DrawDate.Before(in.CloseSellingAt) {
		return nil, apperrors.Validation("INVALID_ROUND", "drawDate must not be before closeSellingAt")
	}

	now := s.clock.Now()
	round := &models.Round{
		Name:           name,
		DrawDate:       in.DrawDate.UTC(),
		OpenSellingAt:  in.OpenSellingAt.UTC(),
		CloseSellingAt: in.CloseSellingAt.UTC(),
		Status:         models.RoundStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	logger.FromContext(ctx).Info("round created", zap.Int64("roundId", round.ID), zap.String("name", name))
	return round, nil
}

// CloseRound stops sales of an OPEN round
func (s *RoundServiceImpl) CloseRound(ctx context.Context, id int64) (*models.Round, error) {
	ok, err := s.rounds.UpdateStatus(ctx, id, models.RoundStatusOpen, models.RoundStatusClosed, s.clock.Now())
	if err != nil {
		return nil, translate(err, "round", id)
	}
	if !ok {
		return nil, apperrors.ErrRoundNotOpen
	}
	logger.FromContext(ctx).Info("round closed", zap.Int64("roundId", id))
	return s.GetRound(ctx, id)
}

// GetRound finds a round by id
func (s *RoundServiceImpl) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	round, err := s.rounds.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "round", id)
	}
	return round, nil
}

// ListRounds lists every round
func (s *RoundServiceImpl) ListRounds(ctx context.Context) ([]*models.Round, error) {
	rounds, err := s.rounds.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// CheckNumber matches number against a drawn round
func (s *RoundServiceImpl) CheckNumber(ctx context.Context, roundID int64, number string) (*prize.Result, error) {
	if !models.IsValidTicketNumber(number) {
		return nil, apperrors.Validation("INVALID_NUMBER", "number must be %d digits", models.TicketNumberLength)
	}
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status != models.RoundStatusDrawn || round.WinningNumbers == nil {
		return nil, apperrors.ErrRoundNotDrawn
	}
	res := s.matcher.Match(number, *round.WinningNumbers)
	return &res, nil
}
