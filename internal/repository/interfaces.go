package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/models"
)

// Every method takes ctx first so a cancelled request cancels its query.
//
// Lookups by ID return (nil, nil) when the row doesn't exist. The service
// layer decides whether that is a NotFound or something it can live with
// (an unresolved booking owner, for example).

// ErrDuplicate is returned when an insert or update hits a unique
// constraint (username, email).
var ErrDuplicate = errors.New("duplicate key")

// UserRepository handles user accounts.
type UserRepository interface {
	// Create inserts u and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, u *models.User) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByLogin matches identifier against email or username.
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)

	// Update writes the editable profile fields and the password hash.
	Update(ctx context.Context, u *models.User) error

	// ListOwners returns owners, newest first. approved=nil means all.
	ListOwners(ctx context.Context, approved *bool) ([]models.User, error)

	// ApproveOwner flips approved false -> true for an owner. It reports
	// whether this call made the change, so a second approval is a no-op.
	ApproveOwner(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteOwner removes an owner and, through the FKs, everything they
	// own. Reports whether a row was deleted.
	DeleteOwner(ctx context.Context, id uuid.UUID) (bool, error)
}

// PetRepository handles pet listings. IsAdopted is computed on read.
type PetRepository interface {
	Create(ctx context.Context, p *models.Pet) (*models.Pet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)

	// List returns pets newest first, restricted to ownerID when set.
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.Pet, error)

	Update(ctx context.Context, p *models.Pet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingFilter narrows a booking listing. Both nil means every booking.
type BookingFilter struct {
	RequesterID *uuid.UUID
	OwnerID     *uuid.UUID
}

// BookingRepository stores all three booking kinds in one table.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, kind models.BookingKind, id uuid.UUID) (*models.Booking, error)

	// List returns bookings of one kind, newest primary date first.
	List(ctx context.Context, kind models.BookingKind, f BookingFilter) ([]models.Booking, error)
}

// AdoptionFilter narrows an adoption listing. OwnerID matches the pet's owner.
type AdoptionFilter struct {
	AdopterID *uuid.UUID
	OwnerID   *uuid.UUID
}

type AdoptionRepository interface {
	Create(ctx context.Context, petID, adopterID uuid.UUID, message string) (*models.AdoptionRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error)
	List(ctx context.Context, f AdoptionFilter) ([]models.AdoptionRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error
}

// NotificationRepository is an append-only inbox per user. The only
// mutation is is_read false -> true.
type NotificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

	// MarkRead reports false when the notification doesn't belong to userID.
	MarkRead(ctx context.Context, userID uuid.UUID, id int64) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, adopterID uuid.UUID, typ models.FeedbackType, message string) (*models.Feedback, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	List(ctx context.Context) ([]models.Feedback, error)
	SetReply(ctx context.Context, id uuid.UUID, reply string) (*models.Feedback, error)
}

// ChatRoomRepository handles rooms, unique per (pet, adopter, owner).
type ChatRoomRepository interface {
	// GetOrCreate returns the room for the triple, creating it if needed.
	// Concurrent callers with the same triple all get the same row.
	GetOrCreate(ctx context.Context, petID, adopterID, ownerID uuid.UUID) (*models.ChatRoom, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)

	// ListByAdopter and ListByOwner return rooms newest first.
	ListByAdopter(ctx context.Context, adopterID uuid.UUID) ([]models.ChatRoom, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChatRoom, error)
}

// ChatMessageRepository handles message persistence.
type ChatMessageRepository interface {
	// Create persists a message, assigning created_at and the next
	// per-room seq inside one transaction.
	Create(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error)

	// ListByRoom returns the full history oldest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error)

	// MarkRead flips is_read on messages in the room not sent by readerID.
	MarkRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error)
}
