package idea

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Repository is the persistence the service needs.
type Repository interface {
	ListAll(ctx context.Context) ([]entity.WithOwner, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Idea, error)
	GetDetail(ctx context.Context, id string) (*entity.Detail, error)
	Create(ctx context.Context, i *entity.Idea) error
	Update(ctx context.Context, id string, p entity.Patch) (*entity.Idea, error)
	OwnerID(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound      = errors.New("idea not found")
	ErrForbidden     = errors.New("not the owner of this idea")
	ErrTitleRequired = errors.New("title is required")
	ErrEmptyPatch    = errors.New("no fields to update")
)

// Service implements idea CRUD.
type Service struct {
	repo Repository
	// RequireOwnerOnUpdate restricts Update to the idea's owner. Off by
	// default: any authenticated user may update any idea.
	RequireOwnerOnUpdate bool
	now                  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// CreateInput is the payload for a new idea. Only Title is required.
type CreateInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	Area             string `json:"area"`
	Status           string `json:"status"`
}

func (s *Service) List(ctx context.Context) ([]entity.WithOwner, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.Idea, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get idea %s: %w", id, err)
	}
	return d, nil
}

// Create stores a new idea owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*entity.Idea, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	status := in.Status
	if strings.TrimSpace(status) == "" {
		status = entity.DefaultStatus
	}
	i := &entity.Idea{
		ID:               utilities.NewID(),
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Area:             in.Area,
		Status:           status,
		UserID:           ownerID,
		CreatedAt:        s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}
	return i, nil
}

// Update applies p to the idea and returns the updated row.
func (s *Service) Update(ctx context.Context, requesterID, id string, p entity.Patch) (*entity.Idea, error) {
	if p.Empty() {
		return nil, ErrEmptyPatch
	}
	if s.RequireOwnerOnUpdate {
		if err := s.checkOwner(ctx, requesterID, id); err != nil {
			return nil, err
		}
	}
	i, err := s.repo.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update idea %s: %w", id, err)
	}
	return i, nil
}

// Delete removes the idea if requesterID owns it.
func (s *Service) Delete(ctx context.Context, requesterID, id string) error {
	if err := s.checkOwner(ctx, requesterID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete idea %s: %w", id, err)
	}
	return nil
}

func (s *Service) checkOwner(ctx context.Context, requesterID, id string) error {
	owner, err := s.repo.OwnerID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load idea owner %s: %w", id, err)
	}
	if owner != requesterID {
		return ErrForbidden
	}
	return nil
}
