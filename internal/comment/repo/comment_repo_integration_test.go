package repo_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/repo"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/testdb"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
)

func TestCommentRepo(t *testing.T) {
	db := testdb.Start(t, true)
	ctx := context.Background()
	comments := repo.NewCommentRepo(db)

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, email, password, name) VALUES ('u1', 'alice', 'a@example.com', 'x', 'Alice')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO ideas (id, title, user_id) VALUES ('i1', 'idea', 'u1')`)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	top := "c1"
	rows := []entity.Comment{
		{ID: "c1", IdeaID: "i1", UserID: "u1", Username: "alice", Comment: "top", CreatedAt: base},
		{ID: "c2", IdeaID: "i1", UserID: "u1", Username: "alice", Comment: "reply", ParentID: &top, CreatedAt: base.Add(time.Second)},
		{ID: "c3", IdeaID: "i1", UserID: "u1", Username: "alice", Comment: "other", CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range rows {
		require.NoError(t, comments.Create(ctx, &rows[i]))
	}

	list, err := comments.ListByIdea(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c3", list[0].ID)

	reply, err := comments.GetByID(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, reply.IsReply())

	orphan := entity.Comment{ID: "c9", IdeaID: "missing", UserID: "u1", Username: "alice", Comment: "x", CreatedAt: base}
	err = comments.Create(ctx, &orphan)
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err))

	require.NoError(t, comments.DeleteThread(ctx, "c1"))
	_, err = comments.GetByID(ctx, "c2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, comments.DeleteThread(ctx, "c1"), sql.ErrNoRows)

	require.NoError(t, comments.Delete(ctx, "c3"))
	assert.ErrorIs(t, comments.Delete(ctx, "c3"), sql.ErrNoRows)

	list, err = comments.ListByIdea(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
