package memory

import (
	"context"
	"sort"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository stores tickets in memory
type TicketRepository struct {
	db *DB
}

// CreateMany assigns ascending ids and stores the tickets
func (r *TicketRepository) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	return r.db.write(func(st *state) error {
		for _, t := range tickets {
			st.nextTicket++
			t.ID = st.nextTicket
			st.tickets[t.ID] = t.Clone()
		}
		return nil
	})
}

// FindByID finds a ticket by id
func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var out *models.Ticket
	r.db.read(func(st *state) {
		out = st.tickets[id].Clone()
	})
	if out == nil {
		return nil, repositories.ErrNotFound
	}
	return out, nil
}

// List pages through tickets by ascending id
func (r *TicketRepository) List(ctx context.Context, f repositories.TicketFilter) ([]*models.Ticket, error) {
	out := []*models.Ticket{}
	r.db.read(func(st *state) {
		for _, t := range st.tickets {
			if t.RoundID != f.RoundID || t.ID <= f.AfterID {
				continue
			}
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			out = append(out, t.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// DeleteAvailable deletes the ticket only while it is AVAILABLE and no order item
// references it
func (r *TicketRepository) DeleteAvailable(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.write(func(st *state) error {
		t, found := st.tickets[id]
		if !found {
			return repositories.ErrNotFound
		}
		if t.Status != models.TicketStatusAvailable || referenced(st, id) {
			return nil
		}
		delete(st.tickets, id)
		ok = true
		return nil
	})
	return ok, err
}

// SavePrize overwrites the prize fields of a ticket
func (r *TicketRepository) SavePrize(ctx context.Context, id int64, res models.PrizeResult) error {
	return r.db.write(func(st *state) error {
		t, found := st.tickets[id]
		if !found {
			return repositories.ErrNotFound
		}
		amount := res.Amount
		checked := res.CheckedAt
		t.PrizeAmount = &amount
		t.PrizeTier = append([]string{}, res.Tiers...)
		t.PrizeCheckedAt = &checked
		t.UpdatedAt = res.CheckedAt
		return nil
	})
}

func referenced(st *state, ticketID int64) bool {
	for _, items := range st.items {
		for _, it := range items {
			if it.TicketID == ticketID {
				return true
			}
		}
	}
	return false
}
