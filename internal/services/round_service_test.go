package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRound_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateRoundInput
	}{
		{"blank name", CreateRoundInput{Name: " ", OpenSellingAt: testStart, CloseSellingAt: testStart.Add(time.Hour), DrawDate: testStart.Add(time.Hour)}},
		{"window reversed", CreateRoundInput{Name: "r", OpenSellingAt: testStart, CloseSellingAt: testStart, DrawDate: testStart.Add(time.Hour)}},
		{"draw before close", CreateRoundInput{Name: "r", OpenSellingAt: testStart, CloseSellingAt: testStart.Add(2 * time.Hour), DrawDate: testStart.Add(time.Hour)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.rounds.CreateRound(ctx, tc.in)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestCloseRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round := f.openRound(t)

	closed, err := f.rounds.CloseRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusClosed, closed.Status)

	_, err = f.rounds.CloseRound(ctx, round.ID)
	assert.ErrorIs(t, err, apperrors.ErrRoundNotOpen)

	_, err = f.rounds.CloseRound(ctx, 99)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	rounds, err := f.rounds.ListRounds(ctx)
	require.NoError(t, err)
	assert.Len(t, rounds, 1)
}

func TestCheckNumber_UsesSharedMatcher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, _ := soldRound(t, f)

	_, err := f.rounds.CheckNumber(ctx, round.ID, "123456")
	assert.ErrorIs(t, err, apperrors.ErrRoundNotDrawn)

	_, err = f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)

	res, err := f.rounds.CheckNumber(ctx, round.ID, "444888")
	require.NoError(t, err)
	assert.True(t, res.IsWinner)
	assert.Equal(t, []prize.Tier{prize.TierThreeBack}, res.Tiers)

	stored, err := f.store.Tickets.FindByID(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, res.TotalAmount.Equal(*stored.PrizeAmount), "query and settlement agree")

	_, err = f.rounds.CheckNumber(ctx, round.ID, "12a456")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestUploadTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round := f.openRound(t)

	t.Run("defaults set size", func(t *testing.T) {
		tickets, err := f.tickets.UploadTickets(ctx, round.ID, []models.TicketSpec{{Number: "000123", Price: decimal.NewFromInt(80)}})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, 1, tickets[0].SetSize)
		assert.Equal(t, models.TicketStatusAvailable, tickets[0].Status)
	})

	t.Run("rejects bad lines", func(t *testing.T) {
		bad := [][]models.TicketSpec{
			nil,
			{{Number: "12345", Price: decimal.NewFromInt(80)}},
			{{Number: "123456", Price: decimal.Zero}},
			{{Number: "123456", Price: decimal.NewFromInt(80), SetSize: -2}},
		}
		for _, specs := range bad {
			_, err := f.tickets.UploadTickets(ctx, round.ID, specs)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		}
	})

	t.Run("unknown round", func(t *testing.T) {
		_, err := f.tickets.UploadTickets(ctx, 77, []models.TicketSpec{{Number: "000123", Price: decimal.NewFromInt(80)}})
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestListAndDeleteTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round := f.openRound(t)
	ids := f.addTickets(t, round.ID, "000001", "000002", "000003")

	_, err := f.checkout.Checkout(ctx, "buyer-1", ids[:1])
	require.NoError(t, err)

	available, err := f.tickets.ListTickets(ctx, repositories.TicketFilter{RoundID: round.ID, Status: models.TicketStatusAvailable})
	require.NoError(t, err)
	assert.Len(t, available, 2)

	assert.ErrorIs(t, f.tickets.DeleteTicket(ctx, ids[0]), apperrors.ErrTicketNotDeletable)
	require.NoError(t, f.tickets.DeleteTicket(ctx, ids[1]))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(f.tickets.DeleteTicket(ctx, ids[1])))
}

func TestDeleteTicket_KeepsReleasedTicketsOfExpiredOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round := f.openRound(t)
	ids := f.addTickets(t, round.ID, "000001", "000002")

	detail, err := f.checkout.Checkout(ctx, "buyer-1", ids[:1])
	require.NoError(t, err)
	f.clock.Advance(16 * time.Minute)
	report, err := f.expiry.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Expired)
	require.Equal(t, models.TicketStatusAvailable, f.ticketStatus(t, ids[0]))

	assert.ErrorIs(t, f.tickets.DeleteTicket(ctx, ids[0]), apperrors.ErrTicketNotDeletable)

	got, err := f.orders.GetOrder(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	_, err = f.store.Tickets.FindByID(ctx, got.Items[0].TicketID)
	require.NoError(t, err)

	require.NoError(t, f.tickets.DeleteTicket(ctx, ids[1]))
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order frees tickets", func(t *testing.T) {
		f := newFixture(t)
		round := f.openRound(t)
		ids := f.addTickets(t, round.ID, "000001")
		detail, err := f.checkout.Checkout(ctx, "buyer-1", ids)
		require.NoError(t, err)

		got, err := f.orders.CancelOrder(ctx, detail.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, got.Order.Status)
		assert.Equal(t, models.TicketStatusAvailable, f.ticketStatus(t, ids[0]))

		_, err = f.orders.CancelOrder(ctx, detail.Order.ID)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotPending)

		f.clock.Advance(time.Hour)
		report, err := f.expiry.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Expired, "cancelled orders are terminal for the sweep")
	})

	t.Run("paid order keeps tickets sold", func(t *testing.T) {
		f := newFixture(t)
		round := f.openRound(t)
		ids := f.addTickets(t, round.ID, "000001")
		paid := f.buy(t, "buyer-1", ids...)

		got, err := f.orders.CancelOrder(ctx, paid.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, got.Order.Status)
		assert.Equal(t, models.TicketStatusSold, f.ticketStatus(t, ids[0]))
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orders.CancelOrder(ctx, "nope")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}
