package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/entity"
	userentity "github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, c *entity.Comment) error
	ListByIdea(ctx context.Context, ideaID string) ([]entity.Comment, error)
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	DeleteThread(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// IdeaChecker tells whether an idea exists.
type IdeaChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

var (
	ErrNotFound        = errors.New("comment not found")
	ErrIdeaNotFound    = errors.New("idea not found")
	ErrForbidden       = errors.New("not the author of this comment")
	ErrCommentRequired = errors.New("comment is required")
	// ErrInvalidParent covers a missing parent, a parent on another idea
	// and a parent that is itself a reply.
	ErrInvalidParent = errors.New("invalid parent comment")
)

// Service implements threaded comments on ideas.
type Service struct {
	repo  Repository
	ideas IdeaChecker
	now   func() time.Time
}

func NewService(r Repository, ideas IdeaChecker) *Service {
	return &Service{repo: r, ideas: ideas, now: time.Now}
}

// CreateInput is the payload for a new comment. ParentID makes it a reply.
type CreateInput struct {
	Comment  string  `json:"comment"`
	ParentID *string `json:"parentId"`
}

// Create stores a comment by author on ideaID.
func (s *Service) Create(ctx context.Context, author *userentity.AuthView, ideaID string, in CreateInput) (*entity.Comment, error) {
	text := strings.TrimSpace(in.Comment)
	if text == "" {
		return nil, ErrCommentRequired
	}
	exists, err := s.ideas.Exists(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("check idea %s: %w", ideaID, err)
	}
	if !exists {
		return nil, ErrIdeaNotFound
	}

	var parentID *string
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) != "" {
		pid := strings.TrimSpace(*in.ParentID)
		parent, err := s.repo.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrInvalidParent
			}
			return nil, fmt.Errorf("load parent comment %s: %w", pid, err)
		}
		if parent.IdeaID != ideaID || parent.IsReply() {
			return nil, ErrInvalidParent
		}
		parentID = &pid
	}

	c := &entity.Comment{
		ID:        utilities.NewID(),
		IdeaID:    ideaID,
		UserID:    author.ID,
		Username:  author.Username,
		Comment:   text,
		ParentID:  parentID,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		// idea or parent removed between the checks and the insert
		if database.IsForeignKeyViolation(err) {
			return nil, ErrIdeaNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// List returns the comments of an idea, newest first.
func (s *Service) List(ctx context.Context, ideaID string) ([]entity.Comment, error) {
	return s.repo.ListByIdea(ctx, ideaID)
}

// Delete removes a comment written by requesterID. Deleting a top-level
// comment also removes its replies.
func (s *Service) Delete(ctx context.Context, requesterID, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load comment %s: %w", id, err)
	}
	if c.UserID != requesterID {
		return ErrForbidden
	}
	if c.IsReply() {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.DeleteThread(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return nil
}
