package repo

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback/entity"
)

type FeedbackRepo struct {
	db *sqlx.DB
}

func NewFeedbackRepo(db *sqlx.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Create inserts a feedback row. Optional columns are only listed when set,
// so absent values take the column default.
func (r *FeedbackRepo) Create(ctx context.Context, f *entity.Feedback) error {
	cols := []string{"id", "feedback"}
	args := []any{f.ID, f.Feedback}
	if f.Email != nil {
		cols = append(cols, "email")
		args = append(args, *f.Email)
	}
	if !f.CreatedAt.IsZero() {
		cols = append(cols, "created_at")
		args = append(args, f.CreatedAt)
	}
	marks := make([]string, len(args))
	for i := range args {
		marks[i] = "$" + strconv.Itoa(i+1)
	}
	q := `INSERT INTO feedback (` + strings.Join(cols, ", ") + `) VALUES (` + strings.Join(marks, ", ") + `) RETURNING created_at`
	return r.db.GetContext(ctx, &f.CreatedAt, q, args...)
}
