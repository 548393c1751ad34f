// Package mysql stores rounds, tickets, orders and payments in MySQL through sqlx.
// Row locks are taken with SELECT ... FOR UPDATE in ascending primary key order.
package mysql

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
)

// Options configures the connection pool
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to MySQL and verifies the connection. parseTime is forced on so
// DATETIME columns scan into time.Time.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// NewStore wires the MySQL repositories on db
func NewStore(db *sqlx.DB) *repositories.Store {
	return &repositories.Store{
		Rounds:   &RoundRepository{db: db},
		Tickets:  &TicketRepository{db: db},
		Orders:   &OrderRepository{db: db},
		Payments: &PaymentRepository{db: db},
		Tx:       &TxManager{db: db},
		Close:    func(context.Context) error { return db.Close() },
	}
}

// isDuplicate reports a unique key violation (error 1062)
func isDuplicate(err error) bool {
	return mysqlErrorNumber(err) == 1062
}

// isReferenced reports a foreign key rejecting the delete of a referenced row
func isReferenced(err error) bool {
	return mysqlErrorNumber(err) == 1451
}

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
