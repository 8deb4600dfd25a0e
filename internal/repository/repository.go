// Package repository provides the database access layer.
//
// The store runs against an embedded SQLite file by default; handing it a
// postgres:// connection string switches it to PostgreSQL via the pgx
// driver. All queries are written with ? placeholders and rebound per
// driver.
package repository

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/serigen/serigen/internal/repository/migrations"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// Store provides database access methods over a shared connection pool.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database named by dsn, creating a SQLite file if
// missing, and runs any pending schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, connStr := resolveDSN(dsn)

	db, err := sqlx.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == driverSQLite && strings.Contains(connStr, ":memory:") {
		// Every pool connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate applies the embedded goose migrations for the active dialect.
func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	dialect, dir := "sqlite3", "sqlite"
	if s.driver == driverPostgres {
		dialect, dir = "postgres", "postgres"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// resolveDSN maps the configured database location to a registered driver
// and its connection string.
func resolveDSN(dsn string) (driver, connStr string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, dsn
	}

	// A bare path means an embedded SQLite database.
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	return driverSQLite, dsn
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
