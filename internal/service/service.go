// Package service holds the business rules: who may do what, which
// state transitions are legal, and which side effects follow a write.
// Handlers translate HTTP to service calls; repositories translate
// service calls to SQL. Errors leaving this package are *apperr.Error
// or wrap one.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/models"
	"go.uber.org/zap"
)

// scheduleTimeout bounds the enqueue call itself. Delivery happens later
// in the worker with its own timeout.
const scheduleTimeout = 2 * time.Second

// Notifier is the write side of the notification inbox, used by the
// workflows. *NotificationService implements it.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error)
}

// Caller is the authenticated identity a service call is made on behalf of.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

// schedule enqueues job and logs instead of failing. The enqueue runs
// detached from the request context so a client hanging up right after
// the write doesn't cancel the email.
func schedule(ctx context.Context, scheduler mail.Scheduler, job mail.Job, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scheduleTimeout)
	defer cancel()

	if err := scheduler.Enqueue(ctx, job); err != nil {
		logger.Warn("failed to schedule email",
			zap.String("tag", job.Tag),
			zap.Strings("to", job.To),
			zap.Error(err),
		)
	}
}

// notify writes a notification and logs instead of failing.
func notify(ctx context.Context, n Notifier, userID uuid.UUID, message string, logger *zap.Logger) {
	if _, err := n.Emit(ctx, userID, message); err != nil {
		logger.Warn("failed to emit notification",
			zap.Stringer("user_id", userID),
			zap.Error(err),
		)
	}
}

func internal(msg string, err error) error {
	return apperr.Internal(msg, err)
}
