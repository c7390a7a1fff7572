package database

import (
	"context"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imported drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 5 * time.Second

// DriverFor picks the driver for dsn: PostgreSQL URLs use pgx, anything else
// is treated as a SQLite path or URI.
func DriverFor(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Connect opens a pool for dsn and verifies it with a ping. maxOpen bounds the
// pool for PostgreSQL; SQLite always gets a single connection.
func Connect(ctx context.Context, dsn string, maxOpen int) (*sqlx.DB, error) {
	driver := DriverFor(dsn)
	dsn = strings.TrimPrefix(dsn, "sqlite://")

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connect to %s database", driver)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enable sqlite foreign keys")
		}
	}
	return db, nil
}
