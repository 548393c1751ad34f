package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func winningNumbers() models.WinningNumberSet {
	return models.WinningNumberSet{
		FirstPrize: "123456",
		Nearby:     []string{"123455", "123457"},
		ThreeFront: []string{"111", "222"},
		ThreeBack:  []string{"888", "999"},
		TwoDigit:   []string{"00"},
	}
}

// soldRound sells four tickets to two buyers and leaves a fifth unsold.
func soldRound(t *testing.T, f *fixture) (*models.Round, []int64, [2]*models.OrderDetail) {
	t.Helper()
	round := f.openRound(t)
	ids := f.addTickets(t, round.ID, "123456", "444888", "555500", "101010", "111234")
	o1 := f.buy(t, "buyer-1", ids[0], ids[1])
	o2 := f.buy(t, "buyer-2", ids[2], ids[3])
	f.clock.Advance(26 * time.Hour)
	return round, ids, [2]*models.OrderDetail{o1, o2}
}

func TestAnnounce_SettlesSoldTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, _ := soldRound(t, f)

	report, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 3, report.Winners)
	assert.True(t, decimal.NewFromInt(6_006_000).Equal(report.TotalPrize), report.TotalPrize.String())
	assert.Equal(t, 0, report.NotifyFailures)

	got, err := f.rounds.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusDrawn, got.Status)
	require.NotNil(t, got.WinningNumbers)
	assert.True(t, got.WinningNumbers.Equal(winningNumbers()))

	expect := map[int64]struct {
		amount int64
		tiers  []string
	}{
		ids[0]: {6_000_000, []string{"firstPrize"}},
		ids[1]: {4_000, []string{"threeBack"}},
		ids[2]: {2_000, []string{"twoDigit"}},
		ids[3]: {0, []string{}},
	}
	for id, want := range expect {
		tk, err := f.store.Tickets.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, tk.PrizeAmount, "ticket %d", id)
		assert.True(t, decimal.NewFromInt(want.amount).Equal(*tk.PrizeAmount), "ticket %d", id)
		assert.Equal(t, want.tiers, tk.PrizeTier)
		require.NotNil(t, tk.PrizeCheckedAt)
	}

	unsold, err := f.store.Tickets.FindByID(ctx, ids[4])
	require.NoError(t, err)
	assert.Nil(t, unsold.PrizeCheckedAt, "unsold tickets are not settled")

	assert.Equal(t, 3, f.notifier.count(models.EventTicketWon))
}

func TestAnnounce_RerunIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, _ := soldRound(t, f)

	_, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	before, err := f.store.Tickets.FindByID(ctx, ids[0])
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	report, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 4, report.Skipped)

	after, err := f.store.Tickets.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, before.PrizeAmount.Equal(*after.PrizeAmount))
	assert.Equal(t, before.PrizeTier, after.PrizeTier)
	assert.Equal(t, 3, f.notifier.count(models.EventTicketWon), "no duplicate notifications")
}

func TestAnnounce_RejectsDifferentNumbersOnDrawnRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, _, _ := soldRound(t, f)

	_, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)

	other := winningNumbers()
	other.FirstPrize = "654321"
	_, err = f.announcement.Announce(ctx, round.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrRoundAlreadyDrawn)
}

func TestAnnounce_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.announcement.Announce(ctx, 1, models.WinningNumberSet{FirstPrize: "12"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.announcement.Announce(ctx, 42, winningNumbers())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

// flakyTickets fails SavePrize once for one ticket
type flakyTickets struct {
	repositories.TicketRepository
	failID int64
	failed bool
}

func (r *flakyTickets) SavePrize(ctx context.Context, id int64, res models.PrizeResult) error {
	if id == r.failID && !r.failed {
		r.failed = true
		return errors.New("connection reset")
	}
	return r.TicketRepository.SavePrize(ctx, id, res)
}

func TestAnnounce_ResumesAfterInterruption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, _ := soldRound(t, f)

	flaky := &flakyTickets{TicketRepository: f.store.Tickets, failID: ids[2]}
	svc := NewAnnouncementService(f.store.Rounds, flaky, f.store.Orders, f.matcher, f.notifier, f.locker, f.clock, AnnouncementOptions{BatchSize: 2})

	report, err := svc.Announce(ctx, round.ID, winningNumbers())
	require.Error(t, err)
	assert.Equal(t, 2, report.Processed)

	report, err = svc.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Winners)

	for _, id := range ids[:4] {
		tk, err := f.store.Tickets.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, tk.PrizeCheckedAt, "ticket %d settled", id)
	}
	assert.Equal(t, 3, f.notifier.count(models.EventTicketWon))
}

func TestAnnounce_RefundedTicketsWinNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, orders := soldRound(t, f)

	_, err := f.orders.CancelOrder(ctx, orders[1].Order.ID)
	require.NoError(t, err)
	require.Equal(t, models.TicketStatusSold, f.ticketStatus(t, ids[2]))

	report, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 2, report.Winners)
	assert.Equal(t, 1, report.Voided)
	assert.True(t, decimal.NewFromInt(6_004_000).Equal(report.TotalPrize), report.TotalPrize.String())

	tk, err := f.store.Tickets.FindByID(ctx, ids[2])
	require.NoError(t, err)
	require.NotNil(t, tk.PrizeAmount)
	assert.True(t, tk.PrizeAmount.IsZero())
	assert.Empty(t, tk.PrizeTier)
	assert.NotNil(t, tk.PrizeCheckedAt)
	assert.Equal(t, 2, f.notifier.count(models.EventTicketWon))

	again, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	assert.Equal(t, 4, again.Skipped)
	assert.Equal(t, 0, again.Voided)
}

func TestAnnounce_NotificationFailureKeepsPrizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, ids, _ := soldRound(t, f)
	f.notifier.err = errors.New("sms down")

	report, err := f.announcement.Announce(ctx, round.ID, winningNumbers())
	require.NoError(t, err)
	assert.Equal(t, 3, report.NotifyFailures)

	tk, err := f.store.Tickets.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6_000_000).Equal(*tk.PrizeAmount))
}
