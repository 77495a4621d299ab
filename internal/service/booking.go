package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
	"go.uber.org/zap"
)

const defaultBookingSubject = "Booking Update"

// BookingService runs the shelter, vaccination and grooming bookings.
// The three kinds share every rule; only BookingDetails differs.
type BookingService struct {
	bookings repository.BookingRepository
	users    repository.UserRepository
	notifier Notifier
	mail     mail.Scheduler
	logger   *zap.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	notifier Notifier,
	scheduler mail.Scheduler,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		users:    users,
		notifier: notifier,
		mail:     scheduler,
		logger:   logger,
	}
}

type BookingInput struct {
	PetName      string
	Phone        string
	PetOwnerName string
	// SelectedOwnerID is optional. One that isn't an approved owner is
	// ignored, not rejected.
	SelectedOwnerID *uuid.UUID
	Details         models.BookingDetails
}

// Create stores a booking and fires its side effects.
//
// Bookings are approved on creation; there is no owner review step.
// The owner notification and the confirmation email are best effort:
// once the booking row is written the call succeeds, whatever happens
// to them.
func (s *BookingService) Create(ctx context.Context, caller Caller, in BookingInput) (*models.Booking, error) {
	if in.Details == nil {
		return nil, apperr.InvalidArgument("booking type is required")
	}
	in.PetName = strings.TrimSpace(in.PetName)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.PetName == "" {
		return nil, apperr.InvalidArgument("pet_name is required")
	}
	if in.Phone == "" {
		return nil, apperr.InvalidArgument("phone is required")
	}
	if err := in.Details.Validate(); err != nil {
		return nil, apperr.InvalidArgument(err.Error())
	}

	owner, err := s.resolveOwner(ctx, in.SelectedOwnerID)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		Kind:         in.Details.Kind(),
		RequesterID:  caller.ID,
		PetOwnerName: strings.TrimSpace(in.PetOwnerName),
		PetName:      in.PetName,
		Phone:        in.Phone,
		Status:       models.StatusApproved,
		Details:      in.Details,
	}
	if owner != nil {
		b.SelectedOwnerID = &owner.ID
	}

	created, err := s.bookings.Create(ctx, b)
	if err != nil {
		return nil, internal("failed to create booking", err)
	}

	s.logger.Info("booking created",
		zap.String("kind", string(created.Kind)),
		zap.Stringer("booking_id", created.ID),
		zap.Bool("owner_bound", owner != nil),
	)

	if owner != nil {
		notify(ctx, s.notifier, owner.ID,
			fmt.Sprintf("New %s booking for %s has been approved.", created.Kind, created.PetName),
			s.logger)
	}
	if created.RequesterEmail != "" {
		schedule(ctx, s.mail, confirmationEmail(created, owner), s.logger)
	}

	return created, nil
}

// resolveOwner returns the selected owner when it is an approved owner
// and nil otherwise.
func (s *BookingService) resolveOwner(ctx context.Context, id *uuid.UUID) (*models.User, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return nil, internal("failed to create booking", err)
	}
	if u == nil || u.Role != models.RoleOwner || !u.Approved {
		s.logger.Debug("selected owner did not resolve", zap.Stringer("selected_owner_id", *id))
		return nil, nil
	}
	return u, nil
}

// List shows owners the bookings made with them, adopters their own
// bookings, and admins everything.
func (s *BookingService) List(ctx context.Context, caller Caller, kind models.BookingKind) ([]models.Booking, error) {
	var f repository.BookingFilter
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleOwner:
		f.OwnerID = &caller.ID
	default:
		f.RequesterID = &caller.ID
	}

	list, err := s.bookings.List(ctx, kind, f)
	if err != nil {
		return nil, internal("failed to list bookings", err)
	}
	return list, nil
}

func (s *BookingService) Get(ctx context.Context, caller Caller, kind models.BookingKind, id uuid.UUID) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, kind, id)
	if err != nil {
		return nil, internal("failed to load booking", err)
	}
	if b == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if !canSeeBooking(caller, b) {
		return nil, apperr.Forbidden("not your booking")
	}
	return b, nil
}

func canSeeBooking(caller Caller, b *models.Booking) bool {
	if caller.IsAdmin() || b.RequesterID == caller.ID {
		return true
	}
	return b.SelectedOwnerID != nil && *b.SelectedOwnerID == caller.ID
}

// SendBookingEmail schedules a free-form message to the person who made
// a booking, signed with the caller's username. It returns the address
// the email was scheduled for.
func (s *BookingService) SendBookingEmail(ctx context.Context, caller Caller, kind string, bookingID uuid.UUID, subject, message string) (string, error) {
	k, ok := models.ParseBookingKind(kind)
	if !ok {
		return "", apperr.InvalidArgument("invalid booking type")
	}
	b, err := s.Get(ctx, caller, k, bookingID)
	if err != nil {
		return "", err
	}
	if b.RequesterEmail == "" {
		return "", apperr.InvalidArgument("no email found for this booking's user")
	}

	sender, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return "", internal("failed to send booking email", err)
	}
	if sender == nil {
		return "", apperr.Unauthenticated("unknown user")
	}

	if strings.TrimSpace(subject) == "" {
		subject = defaultBookingSubject
	}
	// Scheduling failure is reported here: sending the email is the
	// whole point of this call.
	job := mail.Job{
		Tag:     "booking_message",
		To:      []string{b.RequesterEmail},
		Subject: subject,
		Body:    fmt.Sprintf("From %s:\n\n%s", sender.Username, message),
	}
	if err := s.mail.Enqueue(ctx, job); err != nil {
		return "", internal("failed to schedule email", err)
	}
	return b.RequesterEmail, nil
}

func confirmationEmail(b *models.Booking, owner *models.User) mail.Job {
	job := mail.Job{
		Tag:     string(b.Kind) + "_booking_confirmed",
		To:      []string{b.RequesterEmail},
		Subject: b.Kind.Title() + " Booking Confirmed",
		Body: fmt.Sprintf(
			"Dear %s,\n\n"+
				"Your %s booking for %s has been confirmed.\n"+
				"%s\n\n"+
				"Thank you for choosing our service!\n\n"+
				"- PawsNest Team",
			b.RequesterName, b.Kind, b.PetName, b.Details.Summary(),
		),
	}
	if owner != nil && owner.Email != "" && b.Details.CcOwner() {
		job.Cc = []string{owner.Email}
	}
	return job
}
