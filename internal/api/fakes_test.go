package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

// store backs the fakes the HTTP tests touch. Repositories the tests
// never reach are left as nil interfaces embedded in stub structs.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	pets     map[uuid.UUID]*models.Pet
	rooms    map[uuid.UUID]*models.ChatRoom
	messages []*models.ChatMessage
	bookings []*models.Booking
	notes    []*models.Notification
}

func newStore() *store {
	return &store{
		users: make(map[uuid.UUID]*models.User),
		pets:  make(map[uuid.UUID]*models.Pet),
		rooms: make(map[uuid.UUID]*models.ChatRoom),
	}
}

type fakeUsers struct{ s *store }

func (r fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if e.Username == u.Username || e.Email == u.Email {
			return nil, repository.ErrDuplicate
		}
	}
	c := *u
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) GetByLogin(_ context.Context, identifier string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == identifier || u.Username == identifier {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r fakeUsers) ListOwners(_ context.Context, approved *bool) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range r.s.users {
		if u.Role == models.RoleOwner && (approved == nil || u.Approved == *approved) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r fakeUsers) ApproveOwner(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.Approved {
		return false, nil
	}
	u.Approved = true
	return true, nil
}

func (r fakeUsers) DeleteOwner(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	delete(r.s.users, id)
	return ok, nil
}

type fakePets struct{ s *store }

func (r fakePets) Create(_ context.Context, p *models.Pet) (*models.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	c.ID = uuid.New()
	r.s.pets[c.ID] = &c
	out := c
	return &out, nil
}

func (r fakePets) GetByID(_ context.Context, id uuid.UUID) (*models.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.pets[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r fakePets) List(_ context.Context, ownerID *uuid.UUID) ([]models.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Pet, 0)
	for _, p := range r.s.pets {
		if ownerID == nil || p.OwnerID == *ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r fakePets) Update(_ context.Context, p *models.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	r.s.pets[p.ID] = &c
	return nil
}

func (r fakePets) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.pets, id)
	return nil
}

type fakeRooms struct{ s *store }

func (r fakeRooms) GetOrCreate(_ context.Context, petID, adopterID, ownerID uuid.UUID) (*models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.PetID == petID && room.AdopterID == adopterID && room.OwnerID == ownerID {
			c := *room
			return &c, nil
		}
	}
	room := &models.ChatRoom{ID: uuid.New(), PetID: petID, AdopterID: adopterID, OwnerID: ownerID, CreatedAt: time.Now()}
	r.s.rooms[room.ID] = room
	c := *room
	return &c, nil
}

func (r fakeRooms) GetByID(_ context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if room, ok := r.s.rooms[id]; ok {
		c := *room
		return &c, nil
	}
	return nil, nil
}

func (r fakeRooms) ListByAdopter(context.Context, uuid.UUID) ([]models.ChatRoom, error) {
	return []models.ChatRoom{}, nil
}

func (r fakeRooms) ListByOwner(context.Context, uuid.UUID) ([]models.ChatRoom, error) {
	return []models.ChatRoom{}, nil
}

type fakeMessages struct{ s *store }

func (r fakeMessages) Create(_ context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := &models.ChatMessage{
		ID:        int64(len(r.s.messages) + 1),
		RoomID:    roomID,
		Seq:       int64(len(r.s.messages) + 1),
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	r.s.messages = append(r.s.messages, m)
	c := *m
	return &c, nil
}

func (r fakeMessages) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.ChatMessage, 0)
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r fakeMessages) MarkRead(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}

// fakeBookings records every booking it is asked to store.
type fakeBookings struct {
	repository.BookingRepository
	s *store
}

func (r fakeBookings) Create(_ context.Context, b *models.Booking) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *b
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	if u, ok := r.s.users[c.RequesterID]; ok {
		c.RequesterName = u.Username
		c.RequesterEmail = u.Email
	}
	r.s.bookings = append(r.s.bookings, &c)
	out := c
	return &out, nil
}

func (r fakeBookings) stored() []models.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Booking, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		out = append(out, *b)
	}
	return out
}

type fakeNotifications struct {
	repository.NotificationRepository
	s *store
}

func (r fakeNotifications) Create(_ context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := &models.Notification{ID: int64(len(r.s.notes) + 1), UserID: userID, Message: message, CreatedAt: time.Now()}
	r.s.notes = append(r.s.notes, n)
	c := *n
	return &c, nil
}

func (r fakeNotifications) forUser(userID uuid.UUID) []string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, n := range r.s.notes {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

type (
	stubAdoptions struct{ repository.AdoptionRepository }
	stubFeedback  struct{ repository.FeedbackRepository }
)
