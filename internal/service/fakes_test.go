package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

// memDB is an in-memory stand-in for Postgres shared by every fake
// repository, so joins (usernames, pet names) resolve the way the SQL
// does.
type memDB struct {
	mu            sync.Mutex
	clock         time.Time
	users         map[uuid.UUID]*models.User
	pets          map[uuid.UUID]*models.Pet
	bookings      map[uuid.UUID]*models.Booking
	adoptions     map[uuid.UUID]*models.AdoptionRequest
	notifications []*models.Notification
	feedbacks     map[uuid.UUID]*models.Feedback
	rooms         map[uuid.UUID]*models.ChatRoom
	messages      []*models.ChatMessage

	failBookingCreate bool
}

func newMemDB() *memDB {
	return &memDB{
		clock:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		users:     make(map[uuid.UUID]*models.User),
		pets:      make(map[uuid.UUID]*models.Pet),
		bookings:  make(map[uuid.UUID]*models.Booking),
		adoptions: make(map[uuid.UUID]*models.AdoptionRequest),
		feedbacks: make(map[uuid.UUID]*models.Feedback),
		rooms:     make(map[uuid.UUID]*models.ChatRoom),
	}
}

// now ticks one millisecond per call so created_at is strictly ordered.
func (db *memDB) now() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

func (db *memDB) username(id uuid.UUID) string {
	if u, ok := db.users[id]; ok {
		return u.Username
	}
	return ""
}

// addUser seeds a user directly, bypassing registration.
func (db *memDB) addUser(username string, role models.Role, approved bool) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Approved: approved,
	}
	u.CreatedAt = db.now()
	db.users[u.ID] = u
	return u
}

func (db *memDB) addPet(owner *models.User, name string) *models.Pet {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &models.Pet{ID: uuid.New(), OwnerID: owner.ID, OwnerName: owner.Username, Name: name, CreatedAt: db.now()}
	db.pets[p.ID] = p
	return p
}

// ---- users ----

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, repository.ErrDuplicate
		}
	}
	c := *u
	c.ID = uuid.New()
	c.CreatedAt = r.db.now()
	r.db.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUsers) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	if u, _ := r.GetByEmail(ctx, identifier); u != nil {
		return u, nil
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == identifier {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, existing := range r.db.users {
		if id != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return repository.ErrDuplicate
		}
	}
	c := *u
	r.db.users[u.ID] = &c
	return nil
}

func (r memUsers) ListOwners(_ context.Context, approved *bool) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range r.db.users {
		if u.Role == models.RoleOwner && (approved == nil || u.Approved == *approved) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memUsers) ApproveOwner(_ context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.Role != models.RoleOwner || u.Approved {
		return false, nil
	}
	u.Approved = true
	return true, nil
}

func (r memUsers) DeleteOwner(_ context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.Role != models.RoleOwner {
		return false, nil
	}
	delete(r.db.users, id)
	for pid, p := range r.db.pets {
		if p.OwnerID == id {
			delete(r.db.pets, pid)
		}
	}
	return true, nil
}

// ---- pets ----

type memPets struct{ db *memDB }

func (r memPets) adopted(petID uuid.UUID) bool {
	for _, a := range r.db.adoptions {
		if a.PetID == petID && a.Status == models.StatusApproved {
			return true
		}
	}
	return false
}

func (r memPets) Create(_ context.Context, p *models.Pet) (*models.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *p
	c.ID = uuid.New()
	c.OwnerName = r.db.username(c.OwnerID)
	c.CreatedAt = r.db.now()
	r.db.pets[c.ID] = &c
	out := c
	return &out, nil
}

func (r memPets) GetByID(_ context.Context, id uuid.UUID) (*models.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pets[id]
	if !ok {
		return nil, nil
	}
	c := *p
	c.IsAdopted = r.adopted(id)
	return &c, nil
}

func (r memPets) List(_ context.Context, ownerID *uuid.UUID) ([]models.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Pet, 0)
	for _, p := range r.db.pets {
		if ownerID == nil || p.OwnerID == *ownerID {
			c := *p
			c.IsAdopted = r.adopted(p.ID)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memPets) Update(_ context.Context, p *models.Pet) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *p
	r.db.pets[p.ID] = &c
	return nil
}

func (r memPets) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.pets, id)
	return nil
}

// ---- bookings ----

type memBookings struct{ db *memDB }

func (r memBookings) fill(b *models.Booking) *models.Booking {
	c := *b
	if u, ok := r.db.users[c.RequesterID]; ok {
		c.RequesterName = u.Username
		c.RequesterEmail = u.Email
	}
	if c.SelectedOwnerID != nil {
		c.SelectedOwnerName = r.db.username(*c.SelectedOwnerID)
	}
	return &c
}

func (r memBookings) Create(_ context.Context, b *models.Booking) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failBookingCreate {
		return nil, errors.New("connection refused")
	}
	c := *b
	c.ID = uuid.New()
	c.CreatedAt = r.db.now()
	r.db.bookings[c.ID] = &c
	return r.fill(&c), nil
}

func (r memBookings) GetByID(_ context.Context, kind models.BookingKind, id uuid.UUID) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || b.Kind != kind {
		return nil, nil
	}
	return r.fill(b), nil
}

func (r memBookings) List(_ context.Context, kind models.BookingKind, f repository.BookingFilter) ([]models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Booking, 0)
	for _, b := range r.db.bookings {
		if b.Kind != kind {
			continue
		}
		if f.RequesterID != nil && b.RequesterID != *f.RequesterID {
			continue
		}
		if f.OwnerID != nil && (b.SelectedOwnerID == nil || *b.SelectedOwnerID != *f.OwnerID) {
			continue
		}
		out = append(out, *r.fill(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Details.PrimaryDate().After(out[j].Details.PrimaryDate().Time)
	})
	return out, nil
}

// ---- adoption requests ----

type memAdoptions struct{ db *memDB }

func (r memAdoptions) fill(a *models.AdoptionRequest) *models.AdoptionRequest {
	c := *a
	if p, ok := r.db.pets[c.PetID]; ok {
		c.PetName = p.Name
		c.OwnerID = p.OwnerID
		c.PetOwner = r.db.username(p.OwnerID)
	}
	c.Adopter = r.db.username(c.AdopterID)
	return &c
}

func (r memAdoptions) Create(_ context.Context, petID, adopterID uuid.UUID, message string) (*models.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a := &models.AdoptionRequest{
		ID:        uuid.New(),
		PetID:     petID,
		AdopterID: adopterID,
		Message:   message,
		Status:    models.StatusPending,
		CreatedAt: r.db.now(),
	}
	r.db.adoptions[a.ID] = a
	return r.fill(a), nil
}

func (r memAdoptions) GetByID(_ context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.adoptions[id]
	if !ok {
		return nil, nil
	}
	return r.fill(a), nil
}

func (r memAdoptions) List(_ context.Context, f repository.AdoptionFilter) ([]models.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.AdoptionRequest, 0)
	for _, a := range r.db.adoptions {
		full := r.fill(a)
		if f.AdopterID != nil && full.AdopterID != *f.AdopterID {
			continue
		}
		if f.OwnerID != nil && full.OwnerID != *f.OwnerID {
			continue
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memAdoptions) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if a, ok := r.db.adoptions[id]; ok {
		a.Status = status
	}
	return nil
}

// ---- notifications ----

type memNotifications struct{ db *memDB }

func (r memNotifications) Create(_ context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := &models.Notification{
		ID:        int64(len(r.db.notifications) + 1),
		UserID:    userID,
		Message:   message,
		CreatedAt: r.db.now(),
	}
	r.db.notifications = append(r.db.notifications, n)
	c := *n
	return &c, nil
}

func (r memNotifications) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Notification, 0)
	for i := len(r.db.notifications) - 1; i >= 0; i-- {
		if n := r.db.notifications[i]; n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r memNotifications) MarkRead(_ context.Context, userID uuid.UUID, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, n := range r.db.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var changed int64
	for _, n := range r.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (r memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, x := range r.db.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (db *memDB) notificationsFor(userID uuid.UUID) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []string
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

// ---- feedback ----

type memFeedback struct{ db *memDB }

func (r memFeedback) Create(_ context.Context, adopterID uuid.UUID, typ models.FeedbackType, message string) (*models.Feedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f := &models.Feedback{
		ID:          uuid.New(),
		AdopterID:   adopterID,
		AdopterName: r.db.username(adopterID),
		Type:        typ,
		Message:     message,
		CreatedAt:   r.db.now(),
	}
	r.db.feedbacks[f.ID] = f
	c := *f
	return &c, nil
}

func (r memFeedback) GetByID(_ context.Context, id uuid.UUID) (*models.Feedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.feedbacks[id]
	if !ok {
		return nil, nil
	}
	c := *f
	return &c, nil
}

func (r memFeedback) List(_ context.Context) ([]models.Feedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Feedback, 0, len(r.db.feedbacks))
	for _, f := range r.db.feedbacks {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memFeedback) SetReply(ctx context.Context, id uuid.UUID, reply string) (*models.Feedback, error) {
	r.db.mu.Lock()
	if f, ok := r.db.feedbacks[id]; ok {
		f.Reply = &reply
	}
	r.db.mu.Unlock()
	return r.GetByID(ctx, id)
}

// ---- chat ----

type memRooms struct{ db *memDB }

func (r memRooms) fill(room *models.ChatRoom) *models.ChatRoom {
	c := *room
	if p, ok := r.db.pets[c.PetID]; ok {
		c.PetName = p.Name
	}
	c.AdopterName = r.db.username(c.AdopterID)
	c.OwnerName = r.db.username(c.OwnerID)
	return &c
}

func (r memRooms) GetOrCreate(_ context.Context, petID, adopterID, ownerID uuid.UUID) (*models.ChatRoom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, room := range r.db.rooms {
		if room.PetID == petID && room.AdopterID == adopterID && room.OwnerID == ownerID {
			return r.fill(room), nil
		}
	}
	room := &models.ChatRoom{ID: uuid.New(), PetID: petID, AdopterID: adopterID, OwnerID: ownerID, CreatedAt: r.db.now()}
	r.db.rooms[room.ID] = room
	return r.fill(room), nil
}

func (r memRooms) GetByID(_ context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	room, ok := r.db.rooms[id]
	if !ok {
		return nil, nil
	}
	return r.fill(room), nil
}

func (r memRooms) list(match func(*models.ChatRoom) bool) []models.ChatRoom {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.ChatRoom, 0)
	for _, room := range r.db.rooms {
		if match(room) {
			out = append(out, *r.fill(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memRooms) ListByAdopter(_ context.Context, id uuid.UUID) ([]models.ChatRoom, error) {
	return r.list(func(room *models.ChatRoom) bool { return room.AdopterID == id }), nil
}

func (r memRooms) ListByOwner(_ context.Context, id uuid.UUID) ([]models.ChatRoom, error) {
	return r.list(func(room *models.ChatRoom) bool { return room.OwnerID == id }), nil
}

type memMessages struct{ db *memDB }

func (r memMessages) Create(_ context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var seq int64
	for _, m := range r.db.messages {
		if m.RoomID == roomID && m.Seq > seq {
			seq = m.Seq
		}
	}
	m := &models.ChatMessage{
		ID:         int64(len(r.db.messages) + 1),
		RoomID:     roomID,
		Seq:        seq + 1,
		SenderID:   senderID,
		SenderName: r.db.username(senderID),
		Body:       body,
		CreatedAt:  r.db.now(),
	}
	r.db.messages = append(r.db.messages, m)
	c := *m
	return &c, nil
}

func (r memMessages) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.ChatMessage, 0)
	for _, m := range r.db.messages {
		if m.RoomID == roomID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r memMessages) MarkRead(_ context.Context, roomID, readerID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, m := range r.db.messages {
		if m.RoomID == roomID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (db *memDB) messageCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.messages)
}

// ---- collaborators ----

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []mail.Job
	err  error
}

func (s *recordingScheduler) Enqueue(_ context.Context, job mail.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *recordingScheduler) sent() []mail.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Job(nil), s.jobs...)
}

type failingNotifier struct{}

func (failingNotifier) Emit(context.Context, uuid.UUID, string) (*models.Notification, error) {
	return nil, errors.New("notifications table is gone")
}

type broadcast struct {
	roomID uuid.UUID
	value  any
}

type recordingHub struct {
	mu   sync.Mutex
	sent []broadcast
}

func (h *recordingHub) Broadcast(roomID uuid.UUID, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{roomID, v})
}

func (h *recordingHub) all() []broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast(nil), h.sent...)
}
