package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository handles MySQL operations for Ticket
type TicketRepository struct {
	db *sqlx.DB
}

// CreateMany inserts tickets in one transaction and assigns their ids
func (r *TicketRepository) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT INTO tickets (round_id, number, price, set_size, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "prepare ticket insert")
	}
	defer stmt.Close()

	for _, t := range tickets {
		res, err := stmt.ExecContext(ctx, t.RoundID, t.Number, t.Price, t.SetSize, string(t.Status), t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return errors.Wrapf(err, "insert ticket %s", t.Number)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return errors.Wrap(err, "ticket id")
		}
	}
	return errors.Wrap(tx.Commit(), "commit tickets")
}

// FindByID finds a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var row ticketRow
	err := r.db.GetContext(ctx, &row, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find ticket")
	}
	return row.model()
}

// List pages through tickets by ascending id
func (r *TicketRepository) List(ctx context.Context, f repositories.TicketFilter) ([]*models.Ticket, error) {
	query, args := listTicketsQuery(f)
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	return ticketModels(rows)
}

func listTicketsQuery(f repositories.TicketFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT " + ticketColumns + " FROM tickets WHERE round_id = ? AND id > ?")
	args := []interface{}{f.RoundID, f.AfterID}
	if f.Status != "" {
		b.WriteString(" AND status = ?")
		args = append(args, string(f.Status))
	}
	b.WriteString(" ORDER BY id")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args
}

// DeleteAvailable deletes a ticket only while it is AVAILABLE and no order item
// references it
func (r *TicketRepository) DeleteAvailable(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM tickets WHERE id = ? AND status = ? AND NOT EXISTS (SELECT 1 FROM order_items WHERE ticket_id = ?)",
		id, string(models.TicketStatusAvailable), id)
	if err != nil {
		// a checkout committed between the check and the delete
		if isReferenced(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "delete ticket")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	if n > 0 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// SavePrize overwrites the prize fields of a ticket
func (r *TicketRepository) SavePrize(ctx context.Context, id int64, res models.PrizeResult) error {
	tiers, err := marshalTiers(res.Tiers)
	if err != nil {
		return errors.Wrap(err, "encode prize tiers")
	}
	out, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET prize_amount = ?, prize_tier = ?, prize_checked_at = ?, updated_at = ? WHERE id = ?",
		res.Amount, tiers, res.CheckedAt, res.CheckedAt, id,
	)
	if err != nil {
		return errors.Wrap(err, "save prize")
	}
	// RowsAffected is 0 when an identical result is written again, so check
	// existence instead of trusting it.
	if n, _ := out.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.FindByID(ctx, id)
	return err
}
