package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTickets(t *testing.T, store *repositories.Store, n int) []*models.Ticket {
	t.Helper()
	tickets := make([]*models.Ticket, n)
	for i := range tickets {
		tickets[i] = &models.Ticket{RoundID: 1, Number: "000001", Price: decimal.NewFromInt(80), SetSize: 1, Status: models.TicketStatusAvailable}
	}
	require.NoError(t, store.Tickets.CreateMany(context.Background(), tickets))
	return tickets
}

func TestWithinTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tickets := seedTickets(t, store, 2)
	ids := []int64{tickets[0].ID, tickets[1].ID}
	boom := errors.New("boom")

	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		n, err := tx.SetTicketStatus(ctx, ids, models.TicketStatusAvailable, models.TicketStatusReserved, time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	for _, id := range ids {
		got, err := store.Tickets.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusAvailable, got.Status)
	}
}

func TestTx_SetTicketStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tickets := seedTickets(t, store, 3)

	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		_, err := tx.SetTicketStatus(ctx, []int64{tickets[0].ID}, models.TicketStatusAvailable, models.TicketStatusReserved, time.Now())
		require.NoError(t, err)

		n, err := tx.SetTicketStatus(ctx, []int64{tickets[0].ID, tickets[1].ID, 999}, models.TicketStatusAvailable, models.TicketStatusReserved, time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		locked, err := tx.LockTickets(ctx, []int64{tickets[2].ID, 999, tickets[0].ID})
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, tickets[0].ID, locked[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestTicketRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tickets := seedTickets(t, store, 5)

	page, err := store.Tickets.List(ctx, repositories.TicketFilter{RoundID: 1, AfterID: tickets[1].ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, tickets[2].ID, page[0].ID)
	assert.Equal(t, tickets[3].ID, page[1].ID)

	ok, err := store.Tickets.DeleteAvailable(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Tickets.FindByID(ctx, tickets[0].ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestTicketRepository_DeleteKeepsOrderedTickets(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tickets := seedTickets(t, store, 1)
	id := tickets[0].ID
	order := &models.Order{ID: "o1", UserID: "u1", Status: models.OrderStatusExpired, TotalAmount: decimal.NewFromInt(80)}

	require.NoError(t, store.Tx.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.InsertOrder(ctx, order, []models.OrderItem{{OrderID: order.ID, TicketID: id, PriceAtPurchase: decimal.NewFromInt(80)}})
	}))

	ok, err := store.Tickets.DeleteAvailable(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	tk, err := store.Tickets.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusAvailable, tk.Status)
}

func TestTx_InsertPaymentRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	store := db.Store()
	p := &models.Payment{ID: "p1", OrderID: "o1", Amount: decimal.NewFromInt(10), Status: models.PaymentStatusSuccess}

	require.NoError(t, store.Tx.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.InsertPayment(ctx, p)
	}))
	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.InsertPayment(ctx, p)
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
	assert.Equal(t, 1, db.PaymentCount())
}
