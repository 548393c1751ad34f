package mysql

import (
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
)

const roundColumns = "id, name, draw_date, open_selling_at, close_selling_at, status, winning_numbers, drawn_at, created_at, updated_at"

type roundRow struct {
	ID             int64        `db:"id"`
	Name           string       `db:"name"`
	DrawDate       time.Time    `db:"draw_date"`
	OpenSellingAt  time.Time    `db:"open_selling_at"`
	CloseSellingAt time.Time    `db:"close_selling_at"`
	Status         string       `db:"status"`
	WinningNumbers []byte       `db:"winning_numbers"`
	DrawnAt        sql.NullTime `db:"drawn_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r roundRow) model() (*models.Round, error) {
	out := &models.Round{
		ID:             r.ID,
		Name:           r.Name,
		DrawDate:       r.DrawDate.UTC(),
		OpenSellingAt:  r.OpenSellingAt.UTC(),
		CloseSellingAt: r.CloseSellingAt.UTC(),
		Status:         models.RoundStatus(r.Status),
		DrawnAt:        nullTime(r.DrawnAt),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if len(r.WinningNumbers) > 0 {
		wn, err := models.UnmarshalWinningNumbers(r.WinningNumbers)
		if err != nil {
			return nil, errors.Wrapf(err, "round %d winning numbers", r.ID)
		}
		out.WinningNumbers = &wn
	}
	return out, nil
}

const ticketColumns = "id, round_id, number, price, set_size, status, prize_amount, prize_tier, prize_checked_at, created_at, updated_at"

type ticketRow struct {
	ID             int64               `db:"id"`
	RoundID        int64               `db:"round_id"`
	Number         string              `db:"number"`
	Price          decimal.Decimal     `db:"price"`
	SetSize        int                 `db:"set_size"`
	Status         string              `db:"status"`
	PrizeAmount    decimal.NullDecimal `db:"prize_amount"`
	PrizeTier      []byte              `db:"prize_tier"`
	PrizeCheckedAt sql.NullTime        `db:"prize_checked_at"`
	CreatedAt      time.Time           `db:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at"`
}

func (r ticketRow) model() (*models.Ticket, error) {
	out := &models.Ticket{
		ID:             r.ID,
		RoundID:        r.RoundID,
		Number:         r.Number,
		Price:          r.Price,
		SetSize:        r.SetSize,
		Status:         models.TicketStatus(r.Status),
		PrizeCheckedAt: nullTime(r.PrizeCheckedAt),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.PrizeAmount.Valid {
		amt := r.PrizeAmount.Decimal
		out.PrizeAmount = &amt
	}
	if len(r.PrizeTier) > 0 {
		tiers := []string{}
		if err := json.Unmarshal(r.PrizeTier, &tiers); err != nil {
			return nil, errors.Wrapf(err, "ticket %d prize tiers", r.ID)
		}
		out.PrizeTier = tiers
	}
	return out, nil
}

func ticketModels(rows []ticketRow) ([]*models.Ticket, error) {
	out := make([]*models.Ticket, 0, len(rows))
	for _, r := range rows {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

const orderColumns = "id, user_id, total_amount, status, expire_at, created_at, paid_at, updated_at"

type orderRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Status      string          `db:"status"`
	ExpireAt    time.Time       `db:"expire_at"`
	CreatedAt   time.Time       `db:"created_at"`
	PaidAt      sql.NullTime    `db:"paid_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r orderRow) model() *models.Order {
	return &models.Order{
		ID:          r.ID,
		UserID:      r.UserID,
		TotalAmount: r.TotalAmount,
		Status:      models.OrderStatus(r.Status),
		ExpireAt:    r.ExpireAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		PaidAt:      nullTime(r.PaidAt),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func orderModels(rows []orderRow) []*models.Order {
	out := make([]*models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out
}

type orderItemRow struct {
	OrderID         string          `db:"order_id"`
	TicketID        int64           `db:"ticket_id"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
}

const paymentColumns = "id, order_id, amount, method, status, reference, paid_at, created_at"

type paymentRow struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	Amount    decimal.Decimal `db:"amount"`
	Method    string          `db:"method"`
	Status    string          `db:"status"`
	Reference string          `db:"reference"`
	PaidAt    time.Time       `db:"paid_at"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r paymentRow) model() *models.Payment {
	return &models.Payment{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Amount:    r.Amount,
		Method:    r.Method,
		Status:    r.Status,
		Reference: r.Reference,
		PaidAt:    r.PaidAt.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// marshalTiers encodes prize tiers for the JSON column; nil encodes as [].
func marshalTiers(tiers []string) ([]byte, error) {
	if tiers == nil {
		tiers = []string{}
	}
	return json.Marshal(tiers)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
