package services

import (
	"context"
	"fmt"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"go.uber.org/zap"
)

// MaxTicketPage caps the page size of ticket listings
const MaxTicketPage = 500

// Compile-time check to ensure TicketServiceImpl implements TicketService
var _ TicketService = (*TicketServiceImpl)(nil)

// TicketServiceImpl handles the ticket inventory
type TicketServiceImpl struct {
	rounds  repositories.RoundRepository
	tickets repositories.TicketRepository
	clock   clock.Clock
}

// NewTicketService creates a new TicketServiceImpl
func NewTicketService(rounds repositories.RoundRepository, tickets repositories.TicketRepository, clk clock.Clock) *TicketServiceImpl {
	return &TicketServiceImpl{rounds: rounds, tickets: tickets, clock: clk}
}

// UploadTickets creates AVAILABLE tickets in bulk. The whole upload is rejected
// when any line is invalid.
func (s *TicketServiceImpl) UploadTickets(ctx context.Context, roundID int64, specs []models.TicketSpec) ([]*models.Ticket, error) {
	if len(specs) == 0 {
		return nil, apperrors.Validation("EMPTY_UPLOAD", "no tickets given")
	}
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return nil, translate(err, "round", roundID)
	}
	if round.Status == models.RoundStatusDrawn {
		return nil, apperrors.State("ROUND_DRAWN", "round %d is already drawn", roundID)
	}

	now := s.clock.Now()
	tickets := make([]*models.Ticket, 0, len(specs))
	for i, spec := range specs {
		if !models.IsValidTicketNumber(spec.Number) {
			return nil, apperrors.Validation("INVALID_TICKET", "line %d: number %q must be %d digits", i+1, spec.Number, models.TicketNumberLength)
		}
		if !spec.Price.IsPositive() {
			return nil, apperrors.Validation("INVALID_TICKET", "line %d: price must be positive", i+1)
		}
		setSize := spec.SetSize
		if setSize == 0 {
			setSize = 1
		}
		if setSize < 0 {
			return nil, apperrors.Validation("INVALID_TICKET", "line %d: setSize must be at least 1", i+1)
		}
		tickets = append(tickets, &models.Ticket{
			RoundID:   roundID,
			Number:    spec.Number,
			Price:     spec.Price,
			SetSize:   setSize,
			Status:    models.TicketStatusAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.tickets.CreateMany(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to store tickets: %w", err)
	}
	logger.FromContext(ctx).Info("tickets uploaded", zap.Int64("roundId", roundID), zap.Int("count", len(tickets)))
	return tickets, nil
}

// GetTicket finds a ticket by id
func (s *TicketServiceImpl) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "ticket", id)
	}
	return t, nil
}

// ListTickets pages through a round's tickets by ascending id
func (s *TicketServiceImpl) ListTickets(ctx context.Context, filter repositories.TicketFilter) ([]*models.Ticket, error) {
	if filter.Limit <= 0 || filter.Limit > MaxTicketPage {
		filter.Limit = MaxTicketPage
	}
	if _, err := s.rounds.FindByID(ctx, filter.RoundID); err != nil {
		return nil, translate(err, "round", filter.RoundID)
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// DeleteTicket removes a ticket that was never reserved
func (s *TicketServiceImpl) DeleteTicket(ctx context.Context, id int64) error {
	ok, err := s.tickets.DeleteAvailable(ctx, id)
	if err != nil {
		return translate(err, "ticket", id)
	}
	if !ok {
		return apperrors.ErrTicketNotDeletable
	}
	logger.FromContext(ctx).Info("ticket deleted", zap.Int64("ticketId", id))
	return nil
}
