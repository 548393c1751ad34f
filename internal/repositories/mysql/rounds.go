package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository handles MySQL operations for Round
type RoundRepository struct {
	db *sqlx.DB
}

// Create inserts a round and assigns its id
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO rounds (name, draw_date, open_selling_at, close_selling_at, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		round.Name, round.DrawDate, round.OpenSellingAt, round.CloseSellingAt, string(round.Status), round.CreatedAt, round.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert round")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "round id")
	}
	round.ID = id
	return nil
}

// FindByID finds a round by ID
func (r *RoundRepository) FindByID(ctx context.Context, id int64) (*models.Round, error) {
	var row roundRow
	err := r.db.GetContext(ctx, &row, "SELECT "+roundColumns+" FROM rounds WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find round")
	}
	return row.model()
}

// FindAll returns every round ordered by id
func (r *RoundRepository) FindAll(ctx context.Context) ([]*models.Round, error) {
	var rows []roundRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+roundColumns+" FROM rounds ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "find rounds")
	}
	out := make([]*models.Round, 0, len(rows))
	for _, row := range rows {
		m, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// UpdateStatus moves a round between statuses
func (r *RoundRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RoundStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE rounds SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), at, id, string(from),
	)
	if err != nil {
		return false, errors.Wrap(err, "update round status")
	}
	return r.affected(ctx, id, res)
}

// MarkDrawn stores the winning numbers unless the round is already drawn
func (r *RoundRepository) MarkDrawn(ctx context.Context, id int64, wn models.WinningNumberSet, at time.Time) (bool, error) {
	raw, err := models.MarshalWinningNumbers(wn)
	if err != nil {
		return false, errors.Wrap(err, "encode winning numbers")
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE rounds SET status = ?, winning_numbers = ?, drawn_at = ?, updated_at = ? WHERE id = ? AND status <> ?",
		string(models.RoundStatusDrawn), raw, at, at, id, string(models.RoundStatusDrawn),
	)
	if err != nil {
		return false, errors.Wrap(err, "mark round drawn")
	}
	return r.affected(ctx, id, res)
}

func (r *RoundRepository) affected(ctx context.Context, id int64, res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	if n > 0 {
		return true, nil
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT COUNT(1) FROM rounds WHERE id = ?", id); err != nil {
		return false, errors.Wrap(err, "count round")
	}
	if exists == 0 {
		return false, repositories.ErrNotFound
	}
	return false, nil
}
