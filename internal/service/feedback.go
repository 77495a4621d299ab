package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

type FeedbackService struct {
	repo repository.FeedbackRepository
}

func NewFeedbackService(repo repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

func (s *FeedbackService) Create(ctx context.Context, caller Caller, typ models.FeedbackType, message string) (*models.Feedback, error) {
	if typ == "" {
		typ = models.FeedbackGeneral
	}
	if typ != models.FeedbackGeneral && typ != models.FeedbackComplaint {
		return nil, apperr.InvalidArgument("type must be feedback or complaint")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.InvalidArgument("message is required")
	}

	f, err := s.repo.Create(ctx, caller.ID, typ, message)
	if err != nil {
		return nil, internal("failed to submit feedback", err)
	}
	return f, nil
}

func (s *FeedbackService) List(ctx context.Context) ([]models.Feedback, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal("failed to list feedback", err)
	}
	return list, nil
}

// Reply is owner-only. A second reply replaces the first.
func (s *FeedbackService) Reply(ctx context.Context, caller Caller, id uuid.UUID, reply string) (*models.Feedback, error) {
	if caller.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can reply")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperr.InvalidArgument("reply cannot be empty")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to reply to feedback", err)
	}
	if existing == nil {
		return nil, apperr.NotFound("feedback not found")
	}

	f, err := s.repo.SetReply(ctx, id, reply)
	if err != nil {
		return nil, internal("failed to reply to feedback", err)
	}
	return f, nil
}
