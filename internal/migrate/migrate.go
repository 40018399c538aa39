// Package migrate applies numbered schema migrations and records them in the
// schema_migrations table. It is run at deploy time by cmd/migrate, or on
// server start when DB_AUTO_MIGRATE is set.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/schema"
)

// lockKey serializes concurrent runners through pg_advisory_xact_lock.
const lockKey = 7_311_042

// Migration is one forward-only schema step.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sqlx.Tx) error
}

// Status describes a migration and when it was applied (nil if pending).
type Status struct {
	Version   int        `db:"version"`
	Name      string     `db:"name"`
	AppliedAt *time.Time `db:"applied_at"`
}

// Migrations returns the service migrations in version order.
func Migrations() []Migration {
	return []Migration{
		tableMigration(1, schema.Users),
		tableMigration(2, schema.Ideas),
		tableMigration(3, schema.Comments),
		tableMigration(4, schema.Feedback),
	}
}

func tableMigration(version int, t schema.Table) Migration {
	return Migration{
		Version: version,
		Name:    "create_" + t.Name,
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			return schema.Apply(ctx, tx, t)
		},
	}
}

// Runner applies migrations against a database.
type Runner struct {
	db         *sqlx.DB
	logger     *zap.SugaredLogger
	migrations []Migration
}

// NewRunner builds a runner for the given migrations. A nil list means Migrations().
func NewRunner(db *sqlx.DB, logger *zap.SugaredLogger, migrations []Migration) (*Runner, error) {
	if migrations == nil {
		migrations = Migrations()
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			return nil, fmt.Errorf("migration %d (%s) is out of order", migrations[i].Version, migrations[i].Name)
		}
	}
	return &Runner{db: db, logger: logger, migrations: migrations}, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many were applied.
func (r *Runner) Up(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied := 0
	for _, m := range r.migrations {
		ok, err := r.apply(ctx, m)
		if err != nil {
			return applied, fmt.Errorf("apply %d_%s: %w", m.Version, m.Name, err)
		}
		if ok {
			applied++
			r.logger.Infow("migration applied", "version", m.Version, "name", m.Name)
		} else {
			r.logger.Debugw("migration already applied", "version", m.Version, "name", m.Name)
		}
	}
	return applied, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return false, fmt.Errorf("lock: %w", err)
	}
	var one int
	err = tx.GetContext(ctx, &one, `SELECT 1 FROM schema_migrations WHERE version = $1`, m.Version)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if err := m.Up(ctx, tx); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
		return false, fmt.Errorf("record: %w", err)
	}
	return true, tx.Commit()
}

// Status lists all known migrations with their applied time.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	var rows []Status
	if err := r.db.SelectContext(ctx, &rows, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version`); err != nil {
		return nil, err
	}
	appliedAt := make(map[int]*time.Time, len(rows))
	for _, row := range rows {
		appliedAt[row.Version] = row.AppliedAt
	}
	out := make([]Status, 0, len(r.migrations))
	for _, m := range r.migrations {
		out = append(out, Status{Version: m.Version, Name: m.Name, AppliedAt: appliedAt[m.Version]})
	}
	return out, nil
}
