package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var (
	_ repositories.TxManager = (*TxManager)(nil)
	_ repositories.Tx        = (*tx)(nil)
)

// TxManager runs serializable in-memory transactions
type TxManager struct {
	db *DB
}

// WithinTx runs fn with exclusive access to a private copy of the data
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	return m.db.write(func(st *state) error {
		return fn(ctx, &tx{st: st})
	})
}

type tx struct {
	st *state
}

func (t *tx) LockTickets(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	out := make([]*models.Ticket, 0, len(ids))
	for _, id := range sortedIDs(ids) {
		if tk, ok := t.st.tickets[id]; ok {
			out = append(out, tk.Clone())
		}
	}
	return out, nil
}

func (t *tx) SetTicketStatus(ctx context.Context, ids []int64, from, to models.TicketStatus, at time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		tk, ok := t.st.tickets[id]
		if !ok || tk.Status != from {
			continue
		}
		tk.Status = to
		tk.UpdatedAt = at
		n++
	}
	return n, nil
}

func (t *tx) FindRounds(ctx context.Context, ids []int64) (map[int64]*models.Round, error) {
	out := make(map[int64]*models.Round, len(ids))
	for _, id := range ids {
		if r, ok := t.st.rounds[id]; ok {
			out[id] = r.Clone()
		}
	}
	return out, nil
}

func (t *tx) InsertOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if _, exists := t.st.orders[order.ID]; exists {
		return repositories.ErrDuplicate
	}
	t.st.orders[order.ID] = order.Clone()
	t.st.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (t *tx) LockOrder(ctx context.Context, id string) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return o.Clone(), nil
}

func (t *tx) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (bool, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	if to == models.OrderStatusPaid {
		paidAt := at
		o.PaidAt = &paidAt
	}
	return true, nil
}

func (t *tx) OrderTicketIDs(ctx context.Context, orderID string) ([]int64, error) {
	items := t.st.items[orderID]
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.TicketID)
	}
	return sortedIDs(ids), nil
}

func (t *tx) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if _, exists := t.st.payments[payment.OrderID]; exists {
		return repositories.ErrDuplicate
	}
	cp := *payment
	t.st.payments[payment.OrderID] = &cp
	return nil
}
