package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer is how many outbound frames a client may lag behind
	// before it is treated as a slow consumer and dropped.
	sendBuffer = 32
)

// Inbound is the frame a client sends to post a message.
type Inbound struct {
	Message string `json:"message"`
}

// PostFunc handles one inbound message from a connected user. It is
// expected to persist the message and broadcast it to the room.
type PostFunc func(ctx context.Context, roomID, userID uuid.UUID, body string) error

// ErrorFunc turns a PostFunc error into the text sent back to the
// client that caused it.
type ErrorFunc func(err error) string

// Client is one WebSocket connection joined to one room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID uuid.UUID
	userID uuid.UUID
	send   chan []byte

	post    PostFunc
	errText ErrorFunc
	logger  *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID uuid.UUID, post PostFunc, errText ErrorFunc, logger *zap.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		roomID:  roomID,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
		post:    post,
		errText: errText,
		logger:  logger.With(zap.Stringer("room_id", roomID), zap.Stringer("user_id", userID)),
	}
}

// Serve joins the room and pumps frames until the connection closes or
// ctx is cancelled. It blocks; call it from the handler goroutine.
func (c *Client) Serve(ctx context.Context) {
	c.hub.Join(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		// Unblocks ReadMessage if the server is shutting down.
		c.hub.Leave(c)
	}()

	go c.writePump()
	c.readPump(ctx)
}

// readPump reads inbound frames until the peer goes away. Leaving the
// hub on exit closes send, which stops the write pump.
func (c *Client) readPump(ctx context.Context) {
	defer c.hub.Leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("chat connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.reply("invalid frame, expected {\"message\": \"...\"}")
			continue
		}
		if err := c.post(ctx, c.roomID, c.userID, strings.TrimSpace(in.Message)); err != nil {
			c.reply(c.errText(err))
		}
	}
}

// reply sends an error frame to this client only.
func (c *Client) reply(text string) {
	payload, err := json.Marshal(map[string]string{"error": text})
	if err != nil {
		return
	}
	c.hub.sendTo(c, payload)
}

// writePump is the only goroutine that writes to conn. gorilla allows
// one concurrent writer, so pings and messages share this loop.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub closed the buffer: slow consumer or shutdown.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("chat write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
