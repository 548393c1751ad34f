package mysql

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies (or with down, reverts) the embedded schema migrations. It uses
// its own connection because closing the migrator closes the database handle.
func Migrate(dsn string, down bool) (uint, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return 0, errors.Wrap(err, "open mysql")
	}

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		_ = db.Close()
		return 0, errors.Wrap(err, "migrate driver")
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		_ = db.Close()
		return 0, errors.Wrap(err, "migration source")
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		_ = db.Close()
		return 0, errors.Wrap(err, "init migrator")
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, errors.Wrap(err, "run migrations")
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, errors.Wrap(err, "migration version")
	}
	return version, nil
}
