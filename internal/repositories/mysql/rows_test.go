package mysql

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

func TestListTicketsQuery(t *testing.T) {
	t.Run("all statuses without limit", func(t *testing.T) {
		q, args := listTicketsQuery(repositories.TicketFilter{RoundID: 3, AfterID: 10})
		assert.Equal(t, "SELECT "+ticketColumns+" FROM tickets WHERE round_id = ? AND id > ? ORDER BY id", q)
		assert.Equal(t, []interface{}{int64(3), int64(10)}, args)
	})

	t.Run("status and limit", func(t *testing.T) {
		q, args := listTicketsQuery(repositories.TicketFilter{RoundID: 3, Status: models.TicketStatusSold, Limit: 50})
		assert.Contains(t, q, "AND status = ? ORDER BY id LIMIT ?")
		assert.Equal(t, []interface{}{int64(3), int64(0), "SOLD", 50}, args)
	})
}

func TestTicketRowModel(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := ticketRow{
		ID:        9,
		RoundID:   1,
		Number:    "654321",
		Price:     decimal.NewFromInt(80),
		SetSize:   1,
		Status:    "SOLD",
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.Run("unchecked", func(t *testing.T) {
		tk, err := row.model()
		require.NoError(t, err)
		assert.Nil(t, tk.PrizeAmount)
		assert.Nil(t, tk.PrizeTier)
		assert.Nil(t, tk.PrizeCheckedAt)
	})

	t.Run("checked winner", func(t *testing.T) {
		r := row
		tiers, err := marshalTiers([]string{"threeBack", "twoDigit"})
		require.NoError(t, err)
		r.PrizeTier = tiers
		r.PrizeAmount = decimal.NullDecimal{Decimal: decimal.NewFromInt(6000), Valid: true}
		r.PrizeCheckedAt = sql.NullTime{Time: now, Valid: true}

		tk, err := r.model()
		require.NoError(t, err)
		assert.Equal(t, []string{"threeBack", "twoDigit"}, tk.PrizeTier)
		assert.True(t, tk.PrizeAmount.Equal(decimal.NewFromInt(6000)))
		assert.Equal(t, now, *tk.PrizeCheckedAt)
	})

	t.Run("checked loser", func(t *testing.T) {
		r := row
		tiers, err := marshalTiers(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(tiers))
		r.PrizeTier = tiers
		tk, err := r.model()
		require.NoError(t, err)
		assert.Equal(t, []string{}, tk.PrizeTier)
	})
}

func TestRoundRowModel(t *testing.T) {
	raw, err := models.MarshalWinningNumbers(models.WinningNumberSet{FirstPrize: "123456"})
	require.NoError(t, err)

	r, err := roundRow{ID: 1, Status: "DRAWN", WinningNumbers: raw}.model()
	require.NoError(t, err)
	require.NotNil(t, r.WinningNumbers)
	assert.Equal(t, "123456", r.WinningNumbers.FirstPrize)
	assert.Equal(t, []string{}, r.WinningNumbers.Nearby)

	_, err = roundRow{ID: 2, WinningNumbers: []byte("{")}.model()
	assert.Error(t, err)
}

func TestLimitOrAll(t *testing.T) {
	assert.Equal(t, int64(25), limitOrAll(25))
	assert.Greater(t, limitOrAll(0), int64(1<<40))
}

func TestMySQLErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert payment: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	fk := fmt.Errorf("delete ticket: %w", &mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

	assert.True(t, isDuplicate(dup))
	assert.False(t, isDuplicate(fk))
	assert.True(t, isReferenced(fk))
	assert.False(t, isReferenced(dup))
	assert.False(t, isReferenced(sql.ErrNoRows))
}
