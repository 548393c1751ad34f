// Package memory is an in-process implementation of the repositories. Every
// transaction holds one store-wide mutex and works on a private copy of the data
// that replaces the shared copy on commit, which gives serializable semantics.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

type state struct {
	rounds     map[int64]*models.Round
	tickets    map[int64]*models.Ticket
	orders     map[string]*models.Order
	items      map[string][]models.OrderItem
	payments   map[string]*models.Payment // keyed by order id
	nextRound  int64
	nextTicket int64
}

func newState() *state {
	return &state{
		rounds:   make(map[int64]*models.Round),
		tickets:  make(map[int64]*models.Ticket),
		orders:   make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		payments: make(map[string]*models.Payment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, r := range s.rounds {
		c.rounds[id] = r.Clone()
	}
	for id, t := range s.tickets {
		c.tickets[id] = t.Clone()
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	for id, it := range s.items {
		c.items[id] = append([]models.OrderItem(nil), it...)
	}
	for id, p := range s.payments {
		cp := *p
		c.payments[id] = &cp
	}
	c.nextRound = s.nextRound
	c.nextTicket = s.nextTicket
	return c
}

// DB holds the shared state behind every memory repository
type DB struct {
	mu sync.Mutex
	st *state
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{st: newState()}
}

// NewStore returns a repositories.Store backed by a fresh DB.
func NewStore() *repositories.Store {
	return NewDB().Store()
}

// Store exposes db through the repository interfaces.
func (db *DB) Store() *repositories.Store {
	return &repositories.Store{
		Rounds:   &RoundRepository{db: db},
		Tickets:  &TicketRepository{db: db},
		Orders:   &OrderRepository{db: db},
		Payments: &PaymentRepository{db: db},
		Tx:       &TxManager{db: db},
		Close:    func(context.Context) error { return nil },
	}
}

// PaymentCount returns the number of stored payments
func (db *DB) PaymentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.st.payments)
}

// read runs fn against the committed state.
func (db *DB) read(fn func(st *state)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.st)
}

// write runs fn against a copy of the state and commits it when fn succeeds.
func (db *DB) write(fn func(st *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	next := db.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	db.st = next
	return nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
