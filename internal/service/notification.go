package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

// NotificationService is the per-user inbox.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Emit appends an unread notification. No dedup, no batching.
func (s *NotificationService) Emit(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	if message == "" {
		return nil, apperr.InvalidArgument("notification message is empty")
	}
	n, err := s.repo.Create(ctx, userID, message)
	if err != nil {
		return nil, internal("failed to create notification", err)
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("failed to list notifications", err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id int64) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return internal("failed to mark notification read", err)
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internal("failed to mark notifications read", err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, internal("failed to count notifications", err)
	}
	return n, nil
}
