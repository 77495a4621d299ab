// Package realtime keeps the in-memory broadcast groups for chat rooms.
//
// A group is the set of WebSocket connections currently open on one
// room. Groups live only in this process and only as long as their
// connections; nothing here is persisted. Durable history is the
// database, and clients re-sync from it after a reconnect.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub maps room IDs to their connected clients.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Client]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		logger: logger,
	}
}

// Join adds c to its room's group.
func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.rooms[c.roomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[c.roomID] = group
	}
	group[c] = struct{}{}

	h.logger.Debug("client joined room",
		zap.Stringer("room_id", c.roomID),
		zap.Stringer("user_id", c.userID),
		zap.Int("room_size", len(group)),
	)
}

// Leave removes c from its group and closes its send buffer, which
// makes the write pump shut the connection. Calling it twice is safe.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	group, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	close(c.send)
	if len(group) == 0 {
		delete(h.rooms, c.roomID)
	}
	h.logger.Debug("client left room",
		zap.Stringer("room_id", c.roomID),
		zap.Stringer("user_id", c.userID),
	)
}

// Broadcast sends v, JSON-encoded once, to every client in the room.
//
// It never blocks on a client. A client whose buffer is full is dropped
// from the group and its connection closed; it can reconnect and reload
// history. Messages for one room are queued to each client in the order
// Broadcast is called, so callers that serialise per room get per-room
// ordering on every connection.
func (h *Hub) Broadcast(roomID uuid.UUID, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode broadcast", zap.Stringer("room_id", roomID), zap.Error(err))
		return
	}

	// Exclusive lock: dropping a slow client mutates the group, and the
	// sends themselves are non-blocking so the hold is short.
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[roomID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow chat client",
				zap.Stringer("room_id", roomID),
				zap.Stringer("user_id", c.userID),
			)
			h.removeLocked(c)
		}
	}
}

// sendTo queues payload for a single client, dropping it if it is slow.
func (h *Hub) sendTo(c *Client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[c.roomID][c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.removeLocked(c)
	}
}

// RoomSize is the number of connections open on a room.
func (h *Hub) RoomSize(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close disconnects every client. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, group := range h.rooms {
		for c := range group {
			h.removeLocked(c)
		}
	}
}
