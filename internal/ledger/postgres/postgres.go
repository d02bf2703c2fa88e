// Package postgres stores attendance records in PostgreSQL for deployments
// where several kiosks share one ledger.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
	_ "github.com/lib/pq"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// Migrate creates the attendance schema when it does not exist yet.
func (p *Pool) Migrate(ctx context.Context) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS attendance_records (
			id           TEXT PRIMARY KEY,
			identity     TEXT NOT NULL,
			record_date  TEXT NOT NULL,
			record_time  TEXT NOT NULL,
			status       TEXT NOT NULL,
			work_hours   TEXT NOT NULL DEFAULT '',
			confidence   DOUBLE PRECISION,
			quality      DOUBLE PRECISION,
			flags        TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create attendance_records table: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS attendance_identity_date_idx
		ON attendance_records(identity, record_date)
	`); err != nil {
		return fmt.Errorf("failed to create identity/date index: %w", err)
	}

	return nil
}

// DB returns the underlying sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// QueryRow executes a query that returns a single row.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// Exec executes a query that doesn't return rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}
