package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Repository stores feedback.
type Repository interface {
	Create(ctx context.Context, f *entity.Feedback) error
}

var ErrFeedbackRequired = errors.New("feedback is required")

// Service accepts anonymous feedback.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// SubmitInput is the feedback payload. Email is optional.
type SubmitInput struct {
	Feedback string `json:"feedback"`
	Email    string `json:"email"`
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*entity.Feedback, error) {
	text := strings.TrimSpace(in.Feedback)
	if text == "" {
		return nil, ErrFeedbackRequired
	}
	f := &entity.Feedback{ID: utilities.NewID(), Feedback: text}
	if email := strings.TrimSpace(in.Email); email != "" {
		f.Email = &email
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}
