package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/entity"
)

const commentColumns = `id, idea_id, user_id, username, comment, parent_id, created_at`

// CommentRepo provides data access for the comments table.
type CommentRepo struct {
	db *sqlx.DB
}

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts a fully populated comment.
func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	const q = `INSERT INTO comments (` + commentColumns + `)
		VALUES (:id, :idea_id, :user_id, :username, :comment, :parent_id, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, c)
	return err
}

// ListByIdea returns all comments of an idea, newest first, flat.
func (r *CommentRepo) ListByIdea(ctx context.Context, ideaID string) ([]entity.Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE idea_id = $1 ORDER BY created_at DESC, id DESC`
	out := []entity.Comment{}
	if err := r.db.SelectContext(ctx, &out, q, ideaID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a comment or sql.ErrNoRows.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	var c entity.Comment
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteThread removes a top-level comment and its direct replies in one
// transaction, replies first.
func (r *CommentRepo) DeleteThread(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE parent_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Delete removes a single comment.
func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
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
