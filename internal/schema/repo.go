package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repo applies table definitions to PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing connection pool.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Exists reports whether the table is present in the public schema.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	var tblName sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", "public."+name).Scan(&tblName); err != nil {
		return false, err
	}
	return tblName.Valid, nil
}

// Recreate drops the table together with the tables that reference it and
// creates them again with their foreign keys and indexes, in one
// transaction. All rows of every affected table are lost.
func (r *Repo) Recreate(ctx context.Context, t Table) error {
	tables := WithDependents(t)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+tables[i].Name); err != nil {
			return fmt.Errorf("drop %s: %w", tables[i].Name, err)
		}
	}
	for _, tbl := range tables {
		if err := Apply(ctx, tx, tbl); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Apply runs the table's idempotent DDL on the given executor.
func Apply(ctx context.Context, ex sqlx.ExecerContext, t Table) error {
	if _, err := ex.ExecContext(ctx, t.Create); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}
	for _, idx := range t.Indexes {
		if _, err := ex.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("index on %s: %w", t.Name, err)
		}
	}
	return nil
}
