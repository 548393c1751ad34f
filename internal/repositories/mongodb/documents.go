package mongodb

import (
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	colRounds   = "rounds"
	colTickets  = "tickets"
	colOrders   = "orders"
	colPayments = "payments"
	colCounters = "counters"
)

type roundDoc struct {
	ID             int64                    `bson:"_id"`
	Name           string                   `bson:"name"`
	DrawDate       time.Time                `bson:"drawDate"`
	OpenSellingAt  time.Time                `bson:"openSellingAt"`
	CloseSellingAt time.Time                `bson:"closeSellingAt"`
	Status         string                   `bson:"status"`
	WinningNumbers *models.WinningNumberSet `bson:"winningNumbers,omitempty"`
	DrawnAt        *time.Time               `bson:"drawnAt,omitempty"`
	CreatedAt      time.Time                `bson:"createdAt"`
	UpdatedAt      time.Time                `bson:"updatedAt"`
}

type ticketDoc struct {
	ID             int64                 `bson:"_id"`
	RoundID        int64                 `bson:"roundId"`
	Number         string                `bson:"number"`
	Price          primitive.Decimal128  `bson:"price"`
	SetSize        int                   `bson:"setSize"`
	Status         string                `bson:"status"`
	PrizeAmount    *primitive.Decimal128 `bson:"prizeAmount,omitempty"`
	PrizeTier      []string              `bson:"prizeTier,omitempty"`
	PrizeCheckedAt *time.Time            `bson:"prizeCheckedAt,omitempty"`
	LockToken      primitive.ObjectID    `bson:"lockToken,omitempty"`
	CreatedAt      time.Time             `bson:"createdAt"`
	UpdatedAt      time.Time             `bson:"updatedAt"`
}

type orderItemDoc struct {
	TicketID        int64                `bson:"ticketId"`
	PriceAtPurchase primitive.Decimal128 `bson:"priceAtPurchase"`
}

// orderDoc embeds its items; they are written once with the order.
type orderDoc struct {
	ID          string               `bson:"_id"`
	UserID      string               `bson:"userId"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	Status      string               `bson:"status"`
	ExpireAt    time.Time            `bson:"expireAt"`
	CreatedAt   time.Time            `bson:"createdAt"`
	PaidAt      *time.Time           `bson:"paidAt,omitempty"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
	Items       []orderItemDoc       `bson:"items"`
	LockToken   primitive.ObjectID   `bson:"lockToken,omitempty"`
}

type paymentDoc struct {
	ID        string               `bson:"_id"`
	OrderID   string               `bson:"orderId"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Method    string               `bson:"method"`
	Status    string               `bson:"status"`
	Reference string               `bson:"reference,omitempty"`
	PaidAt    time.Time            `bson:"paidAt"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// decimal.String always yields a parseable literal
		panic(errors.Wrapf(err, "decimal %s", d))
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "decimal128 %s", v)
	}
	return d, nil
}

func newRoundDoc(r *models.Round) roundDoc {
	return roundDoc{
		ID:             r.ID,
		Name:           r.Name,
		DrawDate:       r.DrawDate,
		OpenSellingAt:  r.OpenSellingAt,
		CloseSellingAt: r.CloseSellingAt,
		Status:         string(r.Status),
		WinningNumbers: r.WinningNumbers,
		DrawnAt:        r.DrawnAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (d roundDoc) model() *models.Round {
	r := &models.Round{
		ID:             d.ID,
		Name:           d.Name,
		DrawDate:       d.DrawDate.UTC(),
		OpenSellingAt:  d.OpenSellingAt.UTC(),
		CloseSellingAt: d.CloseSellingAt.UTC(),
		Status:         models.RoundStatus(d.Status),
		DrawnAt:        utcPtr(d.DrawnAt),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	if d.WinningNumbers != nil {
		wn := d.WinningNumbers.Clone()
		r.WinningNumbers = &wn
	}
	return r
}

func newTicketDoc(t *models.Ticket) ticketDoc {
	return ticketDoc{
		ID:        t.ID,
		RoundID:   t.RoundID,
		Number:    t.Number,
		Price:     toDecimal128(t.Price),
		SetSize:   t.SetSize,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (d ticketDoc) model() (*models.Ticket, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	t := &models.Ticket{
		ID:             d.ID,
		RoundID:        d.RoundID,
		Number:         d.Number,
		Price:          price,
		SetSize:        d.SetSize,
		Status:         models.TicketStatus(d.Status),
		PrizeTier:      d.PrizeTier,
		PrizeCheckedAt: utcPtr(d.PrizeCheckedAt),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	if d.PrizeAmount != nil {
		amt, err := fromDecimal128(*d.PrizeAmount)
		if err != nil {
			return nil, err
		}
		t.PrizeAmount = &amt
	}
	if t.PrizeCheckedAt != nil && t.PrizeTier == nil {
		t.PrizeTier = []string{}
	}
	return t, nil
}

func newOrderDoc(o *models.Order, items []models.OrderItem) orderDoc {
	doc := orderDoc{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: toDecimal128(o.TotalAmount),
		Status:      string(o.Status),
		ExpireAt:    o.ExpireAt,
		CreatedAt:   o.CreatedAt,
		PaidAt:      o.PaidAt,
		UpdatedAt:   o.UpdatedAt,
		Items:       make([]orderItemDoc, 0, len(items)),
	}
	for _, it := range items {
		doc.Items = append(doc.Items, orderItemDoc{TicketID: it.TicketID, PriceAtPurchase: toDecimal128(it.PriceAtPurchase)})
	}
	return doc
}

func (d orderDoc) model() (*models.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &models.Order{
		ID:          d.ID,
		UserID:      d.UserID,
		TotalAmount: total,
		Status:      models.OrderStatus(d.Status),
		ExpireAt:    d.ExpireAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		PaidAt:      utcPtr(d.PaidAt),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func (d orderDoc) items() ([]models.OrderItem, error) {
	out := make([]models.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		price, err := fromDecimal128(it.PriceAtPurchase)
		if err != nil {
			return nil, err
		}
		out = append(out, models.OrderItem{OrderID: d.ID, TicketID: it.TicketID, PriceAtPurchase: price})
	}
	return out, nil
}

func (d paymentDoc) model() (*models.Payment, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &models.Payment{
		ID:        d.ID,
		OrderID:   d.OrderID,
		Amount:    amount,
		Method:    d.Method,
		Status:    d.Status,
		Reference: d.Reference,
		PaidAt:    d.PaidAt.UTC(),
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
