package router

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/lib/pq"

	commententity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/entity"
	feedbackentity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback/entity"
	ideaentity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea/entity"
	userentity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
)

// memDB is an in-memory stand-in for the postgres tables, including the
// unique constraints and the idea -> comments cascade.
type memDB struct {
	mu       sync.Mutex
	users    map[string]userentity.User
	ideas    map[string]ideaentity.Idea
	comments map[string]commententity.Comment
	feedback []feedbackentity.Feedback
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]userentity.User{},
		ideas:    map[string]ideaentity.Idea{},
		comments: map[string]commententity.Comment{},
	}
}

type memUsers struct{ db *memDB }

func (m memUsers) Create(_ context.Context, u *userentity.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return &pq.Error{Code: "23505"}
		}
	}
	m.db.users[u.ID] = *u
	return nil
}

func (m memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memUsers) GetAuthView(_ context.Context, id string) (*userentity.AuthView, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &userentity.AuthView{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}

type memIdeas struct{ db *memDB }

func (m memIdeas) newestFirst(keep func(ideaentity.Idea) bool) []ideaentity.Idea {
	out := []ideaentity.Idea{}
	for _, i := range m.db.ideas {
		if keep(i) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (m memIdeas) ListAll(context.Context) ([]ideaentity.WithOwner, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []ideaentity.WithOwner{}
	for _, i := range m.newestFirst(func(ideaentity.Idea) bool { return true }) {
		out = append(out, ideaentity.WithOwner{Idea: i, Username: m.db.users[i.UserID].Username})
	}
	return out, nil
}

func (m memIdeas) ListByUser(_ context.Context, userID string) ([]ideaentity.Idea, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.newestFirst(func(i ideaentity.Idea) bool { return i.UserID == userID }), nil
}

func (m memIdeas) GetDetail(_ context.Context, id string) (*ideaentity.Detail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.ideas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	owner := m.db.users[i.UserID]
	return &ideaentity.Detail{Idea: i, Name: owner.Name, Username: owner.Username}, nil
}

func (m memIdeas) Create(_ context.Context, i *ideaentity.Idea) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.ideas[i.ID] = *i
	return nil
}

func (m memIdeas) Update(_ context.Context, id string, p ideaentity.Patch) (*ideaentity.Idea, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.ideas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if p.ShortDescription != nil {
		i.ShortDescription = *p.ShortDescription
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	m.db.ideas[id] = i
	return &i, nil
}

func (m memIdeas) OwnerID(_ context.Context, id string) (string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.ideas[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return i.UserID, nil
}

func (m memIdeas) Exists(_ context.Context, id string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.ideas[id]
	return ok, nil
}

func (m memIdeas) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.ideas[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.db.ideas, id)
	for cid, c := range m.db.comments {
		if c.IdeaID == id {
			delete(m.db.comments, cid)
		}
	}
	return nil
}

type memComments struct{ db *memDB }

func (m memComments) Create(_ context.Context, c *commententity.Comment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.ideas[c.IdeaID]; !ok {
		return &pq.Error{Code: "23503"}
	}
	m.db.comments[c.ID] = *c
	return nil
}

func (m memComments) ListByIdea(_ context.Context, ideaID string) ([]commententity.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []commententity.Comment{}
	for _, c := range m.db.comments {
		if c.IdeaID == ideaID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (m memComments) GetByID(_ context.Context, id string) (*commententity.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.comments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m memComments) DeleteThread(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.comments[id]; !ok {
		return sql.ErrNoRows
	}
	for cid, c := range m.db.comments {
		if c.ParentID != nil && *c.ParentID == id {
			delete(m.db.comments, cid)
		}
	}
	delete(m.db.comments, id)
	return nil
}

func (m memComments) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.comments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.db.comments, id)
	return nil
}

type memFeedback struct{ db *memDB }

func (m memFeedback) Create(_ context.Context, f *feedbackentity.Feedback) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.feedback = append(m.db.feedback, *f)
	return nil
}
