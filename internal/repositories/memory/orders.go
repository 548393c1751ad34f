package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var (
	_ repositories.OrderRepository   = (*OrderRepository)(nil)
	_ repositories.PaymentRepository = (*PaymentRepository)(nil)
)

// OrderRepository answers order queries from memory
type OrderRepository struct {
	db *DB
}

// FindByID returns the order with its items and payment
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	var out *models.OrderDetail
	r.db.read(func(st *state) {
		o, ok := st.orders[id]
		if !ok {
			return
		}
		out = &models.OrderDetail{
			Order: o.Clone(),
			Items: append([]models.OrderItem{}, st.items[id]...),
		}
		if p, ok := st.payments[id]; ok {
			cp := *p
			out.Payment = &cp
		}
	})
	if out == nil {
		return nil, repositories.ErrNotFound
	}
	return out, nil
}

// FindByUser returns the user's orders, newest first
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*models.Order, error) {
	out := []*models.Order{}
	r.db.read(func(st *state) {
		for _, o := range st.orders {
			if o.UserID == userID {
				out = append(out, o.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// FindExpired returns pending orders past their expiry, oldest first
func (r *OrderRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Order, error) {
	return r.pending(func(o *models.Order) bool { return o.ExpireAt.Before(now) }, limit), nil
}

// FindExpiring returns pending orders expiring within the window, soonest first
func (r *OrderRepository) FindExpiring(ctx context.Context, now time.Time, within time.Duration, limit int) ([]*models.Order, error) {
	end := now.Add(within)
	return r.pending(func(o *models.Order) bool {
		return !o.ExpireAt.Before(now) && o.ExpireAt.Before(end)
	}, limit), nil
}

func (r *OrderRepository) pending(match func(*models.Order) bool, limit int) []*models.Order {
	out := []*models.Order{}
	r.db.read(func(st *state) {
		for _, o := range st.orders {
			if o.Status == models.OrderStatusPending && match(o) {
				out = append(out, o.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpireAt.Equal(out[j].ExpireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpireAt.Before(out[j].ExpireAt)
	})
	return truncate(out, limit)
}

// FindPaidOwner returns the owner of the paid order holding the ticket
func (r *OrderRepository) FindPaidOwner(ctx context.Context, ticketID int64) (string, bool, error) {
	var owner string
	var found bool
	r.db.read(func(st *state) {
		for orderID, items := range st.items {
			o := st.orders[orderID]
			if o == nil || o.Status != models.OrderStatusPaid {
				continue
			}
			for _, it := range items {
				if it.TicketID == ticketID {
					owner, found = o.UserID, true
					return
				}
			}
		}
	})
	return owner, found, nil
}

func truncate(orders []*models.Order, limit int) []*models.Order {
	if limit > 0 && len(orders) > limit {
		return orders[:limit]
	}
	return orders
}

// PaymentRepository answers payment queries from memory
type PaymentRepository struct {
	db *DB
}

// FindByOrderID returns the payment recorded for an order
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var out *models.Payment
	r.db.read(func(st *state) {
		if p, ok := st.payments[orderID]; ok {
			cp := *p
			out = &cp
		}
	})
	if out == nil {
		return nil, repositories.ErrNotFound
	}
	return out, nil
}
