package comment

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/entity"
	userentity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
)

type memComments struct {
	mu        sync.Mutex
	rows      map[string]entity.Comment
	createErr error
}

func newMemComments() *memComments {
	return &memComments{rows: map[string]entity.Comment{}}
}

func (m *memComments) Create(_ context.Context, c *entity.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memComments) ListByIdea(_ context.Context, ideaID string) ([]entity.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Comment{}
	for _, c := range m.rows {
		if c.IdeaID == ideaID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *memComments) GetByID(_ context.Context, id string) (*entity.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m *memComments) DeleteThread(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	for k, c := range m.rows {
		if c.ParentID != nil && *c.ParentID == id {
			delete(m.rows, k)
		}
	}
	delete(m.rows, id)
	return nil
}

func (m *memComments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

type ideaSet map[string]bool

func (s ideaSet) Exists(_ context.Context, id string) (bool, error) { return s[id], nil }

var (
	alice = &userentity.AuthView{ID: "u1", Username: "alice"}
	bob   = &userentity.AuthView{ID: "u2", Username: "bob"}
)

func newTestService() (*Service, *memComments) {
	repo := newMemComments()
	svc := NewService(repo, ideaSet{"i1": true, "i2": true})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, repo
}

func ptr(s string) *string { return &s }

func TestCreate_TimestampMatchesStoredPrecision(t *testing.T) {
	svc, _ := newTestService()
	svc.now = func() time.Time {
		return time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("CEST", 2*3600))
	}

	c, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "t"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 5, 8, 9, 123456000, time.UTC), c.CreatedAt)
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "u1", c.UserID)
	assert.Nil(t, c.ParentID)

	reply, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "thanks", ParentID: &c.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c.ID, *reply.ParentID)

	blankParent, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "top", ParentID: ptr("  ")})
	require.NoError(t, err)
	assert.Nil(t, blankParent.ParentID)
}

func TestCreate_Rejects(t *testing.T) {
	svc, _ := newTestService()
	top, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "top"})
	require.NoError(t, err)
	reply, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "reply", ParentID: &top.ID})
	require.NoError(t, err)

	tests := []struct {
		name   string
		ideaID string
		in     CreateInput
		want   error
	}{
		{"blank comment", "i1", CreateInput{Comment: "   "}, ErrCommentRequired},
		{"unknown idea", "nope", CreateInput{Comment: "x"}, ErrIdeaNotFound},
		{"unknown parent", "i1", CreateInput{Comment: "x", ParentID: ptr("nope")}, ErrInvalidParent},
		{"parent on other idea", "i2", CreateInput{Comment: "x", ParentID: &top.ID}, ErrInvalidParent},
		{"reply to reply", "i1", CreateInput{Comment: "x", ParentID: &reply.ID}, ErrInvalidParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tt.ideaID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_IdeaRemovedConcurrently(t *testing.T) {
	svc, repo := newTestService()
	repo.createErr = &pq.Error{Code: "23503"}

	_, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "x"})
	assert.ErrorIs(t, err, ErrIdeaNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	first, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "1"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "2", ParentID: &first.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob, "i2", CreateInput{Comment: "elsewhere"})
	require.NoError(t, err)

	got, err := svc.List(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestDelete_TopLevelRemovesReplies(t *testing.T) {
	svc, repo := newTestService()
	top, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "top"})
	require.NoError(t, err)
	r1, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "r1", ParentID: &top.ID})
	require.NoError(t, err)
	r2, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "r2", ParentID: &top.ID})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "other"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), bob.ID, top.ID), ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), alice.ID, top.ID))
	assert.NotContains(t, repo.rows, top.ID)
	assert.NotContains(t, repo.rows, r1.ID)
	assert.NotContains(t, repo.rows, r2.ID)
	assert.Contains(t, repo.rows, other.ID)

	assert.ErrorIs(t, svc.Delete(context.Background(), alice.ID, top.ID), ErrNotFound)
}

func TestDelete_ReplyOnly(t *testing.T) {
	svc, repo := newTestService()
	top, err := svc.Create(context.Background(), alice, "i1", CreateInput{Comment: "top"})
	require.NoError(t, err)
	reply, err := svc.Create(context.Background(), bob, "i1", CreateInput{Comment: "reply", ParentID: &top.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), bob.ID, reply.ID))
	assert.NotContains(t, repo.rows, reply.ID)
	assert.Contains(t, repo.rows, top.ID)
}
