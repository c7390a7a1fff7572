// Package store holds the SQL repositories behind the API. Queries are written
// with ? placeholders and rebound for the connected driver.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/database"
)

const pgUniqueViolation = "23505"

// Store wraps the shared connection pool.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

// HealthInfo is the database clock and server version.
type HealthInfo struct {
	Timestamp string `db:"timestamp"`
	Version   string `db:"version"`
}

// Health queries the database clock and version.
func (s *Store) Health(ctx context.Context) (HealthInfo, error) {
	query := `SELECT CURRENT_TIMESTAMP AS timestamp, 'SQLite ' || sqlite_version() AS version`
	if s.db.DriverName() == database.DriverPostgres {
		query = `SELECT NOW() AS timestamp, version() AS version`
	}

	var info HealthInfo
	if err := s.db.GetContext(ctx, &info, query); err != nil {
		return HealthInfo{}, errors.Wrap(err, "query database health")
	}
	if i := strings.Index(info.Version, ","); i >= 0 {
		info.Version = info.Version[:i]
	}
	return info, nil
}

// isUniqueViolation reports whether err is a unique or primary key violation
// from either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows onto a NOT_FOUND error and wraps anything else.
func notFound(err error, message, op string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(message)
	}
	return errors.Wrap(err, op)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
