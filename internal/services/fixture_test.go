package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/dedup"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/locker"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

type sentNotification struct {
	userID  string
	event   models.NotificationEvent
	payload map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{userID: userID, event: event, payload: payload})
	return nil
}

func (n *fakeNotifier) count(event models.NotificationEvent) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.event == event {
			c++
		}
	}
	return c
}

type fixture struct {
	db       *memory.DB
	store    *repositories.Store
	clock    *clock.Fake
	locker   *locker.Local
	notifier *fakeNotifier
	matcher  *prize.Matcher

	rounds       *RoundServiceImpl
	tickets      *TicketServiceImpl
	checkout     *CheckoutServiceImpl
	settlement   *SettlementServiceImpl
	orders       *OrderServiceImpl
	expiry       *ExpiryServiceImpl
	announcement *AnnouncementServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	store := db.Store()
	clk := clock.NewFake(testStart)
	lk := locker.NewLocal()
	n := &fakeNotifier{}
	dd, err := dedup.NewLRU(1024)
	require.NoError(t, err)
	matcher := prize.NewMatcher(prize.CountDuplicates)

	return &fixture{
		db:           db,
		store:        store,
		clock:        clk,
		locker:       lk,
		notifier:     n,
		matcher:      matcher,
		rounds:       NewRoundService(store.Rounds, matcher, clk),
		tickets:      NewTicketService(store.Rounds, store.Tickets, clk),
		checkout:     NewCheckoutService(store.Tx, clk, 0),
		settlement:   NewSettlementService(store.Tx, store.Orders, clk),
		orders:       NewOrderService(store.Orders, store.Tx, clk),
		expiry:       NewExpiryService(store.Orders, store.Tx, clk, lk, dd, n, ExpiryOptions{BatchSize: 2}),
		announcement: NewAnnouncementService(store.Rounds, store.Tickets, store.Orders, matcher, n, lk, clk, AnnouncementOptions{BatchSize: 2, NotifyConcurrency: 2}),
	}
}

// openRound creates a round selling from an hour ago until tomorrow.
func (f *fixture) openRound(t *testing.T) *models.Round {
	t.Helper()
	r, err := f.rounds.CreateRound(context.Background(), CreateRoundInput{
		Name:           "Round 1",
		OpenSellingAt:  testStart.Add(-time.Hour),
		CloseSellingAt: testStart.Add(24 * time.Hour),
		DrawDate:       testStart.Add(25 * time.Hour),
	})
	require.NoError(t, err)
	return r
}

// addTickets uploads one ticket per number at a price of 80.
func (f *fixture) addTickets(t *testing.T, roundID int64, numbers ...string) []int64 {
	t.Helper()
	specs := make([]models.TicketSpec, len(numbers))
	for i, n := range numbers {
		specs[i] = models.TicketSpec{Number: n, Price: decimal.NewFromInt(80), SetSize: 1}
	}
	tickets, err := f.tickets.UploadTickets(context.Background(), roundID, specs)
	require.NoError(t, err)
	ids := make([]int64, len(tickets))
	for i, tk := range tickets {
		ids[i] = tk.ID
	}
	return ids
}

// buy checks out and pays for the tickets on behalf of user.
func (f *fixture) buy(t *testing.T, user string, ids ...int64) *models.OrderDetail {
	t.Helper()
	ctx := context.Background()
	detail, err := f.checkout.Checkout(ctx, user, ids)
	require.NoError(t, err)
	paid, err := f.settlement.ConfirmPayment(ctx, PaymentConfirmation{OrderID: detail.Order.ID})
	require.NoError(t, err)
	return paid
}

func (f *fixture) ticketStatus(t *testing.T, id int64) models.TicketStatus {
	t.Helper()
	tk, err := f.store.Tickets.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tk.Status
}
