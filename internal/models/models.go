package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is what a user is allowed to do on the platform.
//
// Why a named string type and not a bare string?
//   - The JWT, the users table and the handlers all agree on the same
//     three values. A typo like "adopters" fails to compile when it's
//     compared against a constant instead of silently matching nothing.
type Role string

const (
	RoleAdopter Role = "adopter"
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdopter, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// Status is shared by bookings and adoption requests.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// User is the root entity. Everything else references a user and is
// deleted with it (ON DELETE CASCADE in the schema).
//
// Approved only gates owners: an owner cannot log in until an admin
// flips it. Adopters are approved at registration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"user_type"`
	Approved     bool      `json:"is_approved"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Contact      string    `json:"contact"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pet is a listing owned by a user with role=owner.
//
// IsAdopted is not a column. It's computed on read as
// "EXISTS an approved adoption request for this pet", so it can never
// drift from the requests table.
type Pet struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	OwnerName   string    `json:"owner"`
	Name        string    `json:"name"`
	Breed       string    `json:"breed"`
	Gender      string    `json:"gender"`
	Size        string    `json:"size"`
	Age         string    `json:"age"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Contact     string    `json:"contact"`
	ImageURL    string    `json:"image"`
	IsAdopted   bool      `json:"is_adopted"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdoptionRequest moves pending -> approved | rejected, decided by the
// pet's owner.
type AdoptionRequest struct {
	ID        uuid.UUID `json:"id"`
	PetID     uuid.UUID `json:"pet"`
	PetName   string    `json:"pet_name"`
	AdopterID uuid.UUID `json:"adopter_id"`
	Adopter   string    `json:"adopter"`
	OwnerID   uuid.UUID `json:"owner_id"`
	PetOwner  string    `json:"pet_owner"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"request_date"`
}

// Notification is one entry in a user's in-app inbox.
// Only IsRead ever changes after insert, and only false -> true.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackType separates general feedback from complaints.
type FeedbackType string

const (
	FeedbackGeneral   FeedbackType = "feedback"
	FeedbackComplaint FeedbackType = "complaint"
)

type Feedback struct {
	ID          uuid.UUID    `json:"id"`
	AdopterID   uuid.UUID    `json:"adopter"`
	AdopterName string       `json:"adopter_name"`
	Type        FeedbackType `json:"type"`
	Message     string       `json:"message"`
	Reply       *string      `json:"reply"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ChatRoom is unique per (pet, adopter, owner). The names are joined in
// on read so the inbox screen doesn't need three extra lookups.
type ChatRoom struct {
	ID          uuid.UUID `json:"id"`
	PetID       uuid.UUID `json:"pet"`
	PetName     string    `json:"pet_name"`
	AdopterID   uuid.UUID `json:"adopter"`
	AdopterName string    `json:"adopter_name"`
	OwnerID     uuid.UUID `json:"owner"`
	OwnerName   string    `json:"owner_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is the room's adopter or owner.
func (r *ChatRoom) HasParticipant(userID uuid.UUID) bool {
	return userID == r.AdopterID || userID == r.OwnerID
}

// ChatMessage is a single message in a room.
//
// Why both Seq and CreatedAt?
//   - Seq is assigned inside the insert transaction while the room's
//     advisory lock is held, so it is gap-free and strictly increasing
//     per room even when two inserts land in the same microsecond.
//   - CreatedAt is what clients display.
//
// History is ordered by (created_at, seq).
type ChatMessage struct {
	ID         int64     `json:"id"`
	RoomID     uuid.UUID `json:"room"`
	Seq        int64     `json:"seq"`
	SenderID   uuid.UUID `json:"sender"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}
