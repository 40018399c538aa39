package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea/entity"
)

const ideaColumns = `id, title, description, short_description, area, status, user_id, created_at`

// IdeaRepo provides data access for the ideas table.
type IdeaRepo struct {
	db *sqlx.DB
}

func NewIdeaRepo(db *sqlx.DB) *IdeaRepo { return &IdeaRepo{db: db} }

// ListAll returns every idea with its owner's username, newest first.
func (r *IdeaRepo) ListAll(ctx context.Context) ([]entity.WithOwner, error) {
	const q = `SELECT i.id, i.title, i.description, i.short_description, i.area, i.status,
		i.user_id, i.created_at, u.username
	  FROM ideas i JOIN users u ON u.id = i.user_id
	  ORDER BY i.created_at DESC, i.id DESC`
	out := []entity.WithOwner{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the ideas owned by userID, newest first.
func (r *IdeaRepo) ListByUser(ctx context.Context, userID string) ([]entity.Idea, error) {
	const q = `SELECT ` + ideaColumns + ` FROM ideas WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	out := []entity.Idea{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetail returns one idea with owner name and username or sql.ErrNoRows.
func (r *IdeaRepo) GetDetail(ctx context.Context, id string) (*entity.Detail, error) {
	const q = `SELECT i.id, i.title, i.description, i.short_description, i.area, i.status,
		i.user_id, i.created_at, u.name, u.username
	  FROM ideas i JOIN users u ON u.id = i.user_id
	  WHERE i.id = $1`
	var d entity.Detail
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a fully populated idea.
func (r *IdeaRepo) Create(ctx context.Context, i *entity.Idea) error {
	const q = `INSERT INTO ideas (` + ideaColumns + `)
		VALUES (:id, :title, :description, :short_description, :area, :status, :user_id, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, i)
	return err
}

// Update writes exactly the columns present in p and returns the updated row,
// or sql.ErrNoRows when the idea does not exist.
func (r *IdeaRepo) Update(ctx context.Context, id string, p entity.Patch) (*entity.Idea, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	add("short_description", p.ShortDescription)
	add("description", p.Description)
	add("status", p.Status)
	if len(sets) == 0 {
		return nil, errors.New("empty patch")
	}
	args = append(args, id)
	q := `UPDATE ideas SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + ideaColumns

	var out entity.Idea
	if err := r.db.GetContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return &out, nil
}

// OwnerID returns the owner of an idea or sql.ErrNoRows.
func (r *IdeaRepo) OwnerID(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.GetContext(ctx, &owner, `SELECT user_id FROM ideas WHERE id = $1`, id); err != nil {
		return "", err
	}
	return owner, nil
}

// Exists reports whether an idea with the id exists.
func (r *IdeaRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM ideas WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes an idea; its comments go with it through ON DELETE CASCADE.
// Returns sql.ErrNoRows when nothing was deleted.
func (r *IdeaRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
