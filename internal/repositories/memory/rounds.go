package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository stores rounds in memory
type RoundRepository struct {
	db *DB
}

// Create assigns the next id and stores the round
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	return r.db.write(func(st *state) error {
		st.nextRound++
		round.ID = st.nextRound
		st.rounds[round.ID] = round.Clone()
		return nil
	})
}

// FindByID finds a round by id
func (r *RoundRepository) FindByID(ctx context.Context, id int64) (*models.Round, error) {
	var out *models.Round
	r.db.read(func(st *state) {
		out = st.rounds[id].Clone()
	})
	if out == nil {
		return nil, repositories.ErrNotFound
	}
	return out, nil
}

// FindAll returns every round ordered by id
func (r *RoundRepository) FindAll(ctx context.Context) ([]*models.Round, error) {
	out := []*models.Round{}
	r.db.read(func(st *state) {
		for _, rd := range st.rounds {
			out = append(out, rd.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStatus changes the status when the round is still in from
func (r *RoundRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RoundStatus, at time.Time) (bool, error) {
	var ok bool
	err := r.db.write(func(st *state) error {
		rd, found := st.rounds[id]
		if !found {
			return repositories.ErrNotFound
		}
		if rd.Status != from {
			return nil
		}
		rd.Status = to
		rd.UpdatedAt = at
		ok = true
		return nil
	})
	return ok, err
}

// MarkDrawn stores the winning numbers unless the round is already drawn
func (r *RoundRepository) MarkDrawn(ctx context.Context, id int64, wn models.WinningNumberSet, at time.Time) (bool, error) {
	var ok bool
	err := r.db.write(func(st *state) error {
		rd, found := st.rounds[id]
		if !found {
			return repositories.ErrNotFound
		}
		if rd.Status == models.RoundStatusDrawn {
			return nil
		}
		c := wn.Clone()
		drawnAt := at
		rd.WinningNumbers = &c
		rd.DrawnAt = &drawnAt
		rd.Status = models.RoundStatusDrawn
		rd.UpdatedAt = at
		ok = true
		return nil
	})
	return ok, err
}
