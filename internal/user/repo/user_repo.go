package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. u.ID must already be set; created_at is
// filled from the database.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, password, name)
		VALUES (:id, :username, :email, :password, :name) RETURNING created_at`
	rows, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ExistsByUsernameOrEmail reports whether either value is already registered.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, username, email); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByEmail returns a user matched by email or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT id, username, email, password, name, created_at FROM users WHERE email = $1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetAuthView returns only the fields attached to authenticated requests.
func (r *UserRepo) GetAuthView(ctx context.Context, id string) (*entity.AuthView, error) {
	const q = `SELECT id, username, email FROM users WHERE id = $1`
	var v entity.AuthView
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return nil, err
	}
	return &v, nil
}
