package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
	"go.uber.org/zap"
)

// Broadcaster pushes a value to every live connection on a room.
// *realtime.Hub implements it.
type Broadcaster interface {
	Broadcast(roomID uuid.UUID, v any)
}

// ChatService owns rooms and messages between an adopter and a pet's
// owner.
//
// Ordering: PostMessage holds a per-room lock across "persist, then
// broadcast". Within this process that makes the order clients receive
// messages equal the order they were stored. Across processes the
// store's own per-room lock orders seq and created_at, and clients that
// reconnect re-sync from ListMessages.
type ChatService struct {
	rooms    repository.ChatRoomRepository
	messages repository.ChatMessageRepository
	pets     repository.PetRepository
	hub      Broadcaster
	locks    roomLocks
	logger   *zap.Logger
}

func NewChatService(
	rooms repository.ChatRoomRepository,
	messages repository.ChatMessageRepository,
	pets repository.PetRepository,
	hub Broadcaster,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		rooms:    rooms,
		messages: messages,
		pets:     pets,
		hub:      hub,
		locks:    roomLocks{m: make(map[uuid.UUID]*roomLock)},
		logger:   logger,
	}
}

// OpenRoom returns the caller's room about a pet, creating it on first
// contact. The owner comes from the pet, so the same (pet, adopter)
// always lands in the same room.
func (s *ChatService) OpenRoom(ctx context.Context, adopterID, petID uuid.UUID) (*models.ChatRoom, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, internal("failed to open chat room", err)
	}
	if pet == nil {
		return nil, apperr.NotFound("pet not found")
	}
	if pet.OwnerID == adopterID {
		return nil, apperr.InvalidArgument("you can't open a chat about your own pet")
	}

	room, err := s.rooms.GetOrCreate(ctx, pet.ID, adopterID, pet.OwnerID)
	if err != nil {
		return nil, internal("failed to open chat room", err)
	}
	return room, nil
}

// ListRooms returns the rooms an owner answers in, or the rooms any
// other user started, newest first.
func (s *ChatService) ListRooms(ctx context.Context, caller Caller) ([]models.ChatRoom, error) {
	var (
		rooms []models.ChatRoom
		err   error
	)
	if caller.Role == models.RoleOwner {
		rooms, err = s.rooms.ListByOwner(ctx, caller.ID)
	} else {
		rooms, err = s.rooms.ListByAdopter(ctx, caller.ID)
	}
	if err != nil {
		return nil, internal("failed to list chat rooms", err)
	}
	return rooms, nil
}

// GetRoom returns the room if userID takes part in it.
func (s *ChatService) GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, internal("failed to load chat room", err)
	}
	if room == nil {
		return nil, apperr.NotFound("chat room not found")
	}
	if !room.HasParticipant(userID) {
		return nil, apperr.Forbidden("you are not part of this chat")
	}
	return room, nil
}

// ListMessages returns the room's full history, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, userID, roomID uuid.UUID) ([]models.ChatMessage, error) {
	if _, err := s.GetRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, internal("failed to load messages", err)
	}
	return msgs, nil
}

// PostMessage stores a message and pushes the stored copy to everyone
// connected to the room, the sender included.
func (s *ChatService) PostMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	if _, err := s.GetRoom(ctx, senderID, roomID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.InvalidArgument("message cannot be empty")
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	msg, err := s.messages.Create(ctx, roomID, senderID, body)
	if err != nil {
		return nil, internal("failed to send message", err)
	}
	s.hub.Broadcast(roomID, msg)

	return msg, nil
}

// Post adapts PostMessage to the realtime connection callback.
func (s *ChatService) Post(ctx context.Context, roomID, senderID uuid.UUID, body string) error {
	_, err := s.PostMessage(ctx, roomID, senderID, body)
	return err
}

// MarkRoomRead marks the other participant's messages as read and
// returns how many changed.
func (s *ChatService) MarkRoomRead(ctx context.Context, userID, roomID uuid.UUID) (int64, error) {
	if _, err := s.GetRoom(ctx, userID, roomID); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, roomID, userID)
	if err != nil {
		return 0, internal("failed to mark messages read", err)
	}
	return n, nil
}

// roomLocks hands out one mutex per room. Entries are reference counted
// and removed when the last holder unlocks, so the map only holds rooms
// with a post in flight.
type roomLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*roomLock
}

type roomLock struct {
	sync.Mutex
	refs int
}

func (l *roomLocks) lock(roomID uuid.UUID) func() {
	l.mu.Lock()
	rl, ok := l.m[roomID]
	if !ok {
		rl = &roomLock{}
		l.m[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.m, roomID)
		}
		l.mu.Unlock()
	}
}
