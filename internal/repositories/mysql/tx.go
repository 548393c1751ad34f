package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

var (
	_ repositories.TxManager = (*TxManager)(nil)
	_ repositories.Tx        = (*tx)(nil)
)

// TxManager runs fn inside a database transaction
type TxManager struct {
	db *sqlx.DB
}

// WithinTx commits when fn returns nil and rolls back otherwise
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) (err error) {
	sqlTx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Warn("mysql rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(ctx, &tx{tx: sqlTx}); err != nil {
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "commit")
}

type tx struct {
	tx *sqlx.Tx
}

// in expands an IN (?) placeholder for ids
func (t *tx) in(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expand query")
	}
	return t.tx.Rebind(q), a, nil
}

func (t *tx) LockTickets(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	if len(ids) == 0 {
		return []*models.Ticket{}, nil
	}
	q, args, err := t.in("SELECT "+ticketColumns+" FROM tickets WHERE id IN (?) ORDER BY id FOR UPDATE", ids)
	if err != nil {
		return nil, err
	}
	var rows []ticketRow
	if err := t.tx.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "lock tickets")
	}
	return ticketModels(rows)
}

func (t *tx) SetTicketStatus(ctx context.Context, ids []int64, from, to models.TicketStatus, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := t.in("UPDATE tickets SET status = ?, updated_at = ? WHERE id IN (?) AND status = ?",
		string(to), at, ids, string(from))
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "set ticket status")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}

func (t *tx) FindRounds(ctx context.Context, ids []int64) (map[int64]*models.Round, error) {
	out := make(map[int64]*models.Round, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := t.in("SELECT "+roundColumns+" FROM rounds WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []roundRow
	if err := t.tx.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "find rounds")
	}
	for _, row := range rows {
		m, err := row.model()
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, nil
}

func (t *tx) InsertOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, total_amount, status, expire_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.ExpireAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return repositories.ErrDuplicate
		}
		return errors.Wrap(err, "insert order")
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]orderItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, orderItemRow{OrderID: o.ID, TicketID: it.TicketID, PriceAtPurchase: it.PriceAtPurchase})
	}
	_, err = t.tx.NamedExecContext(ctx,
		"INSERT INTO order_items (order_id, ticket_id, price_at_purchase) VALUES (:order_id, :ticket_id, :price_at_purchase)",
		rows,
	)
	return errors.Wrap(err, "insert order items")
}

func (t *tx) LockOrder(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	err := t.tx.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = ? FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "lock order")
	}
	return row.model(), nil
}

func (t *tx) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (bool, error) {
	query := "UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	args := []interface{}{string(to), at, id, string(from)}
	if to == models.OrderStatusPaid {
		query = "UPDATE orders SET status = ?, updated_at = ?, paid_at = ? WHERE id = ? AND status = ?"
		args = []interface{}{string(to), at, at, id, string(from)}
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "set order status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	if n > 0 {
		return true, nil
	}
	var exists int
	if err := t.tx.GetContext(ctx, &exists, "SELECT COUNT(1) FROM orders WHERE id = ?", id); err != nil {
		return false, errors.Wrap(err, "count order")
	}
	if exists == 0 {
		return false, repositories.ErrNotFound
	}
	return false, nil
}

func (t *tx) OrderTicketIDs(ctx context.Context, orderID string) ([]int64, error) {
	ids := []int64{}
	err := t.tx.SelectContext(ctx, &ids, "SELECT ticket_id FROM order_items WHERE order_id = ? ORDER BY ticket_id", orderID)
	return ids, errors.Wrap(err, "order ticket ids")
}

func (t *tx) InsertPayment(ctx context.Context, p *models.Payment) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO payments (id, order_id, amount, method, status, reference, paid_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.Reference, p.PaidAt, p.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return repositories.ErrDuplicate
		}
		return errors.Wrap(err, "insert payment")
	}
	return nil
}
