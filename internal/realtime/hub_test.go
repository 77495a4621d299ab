package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(roomID uuid.UUID, buffer int) *Client {
	return &Client{
		roomID: roomID,
		userID: uuid.New(),
		send:   make(chan []byte, buffer),
		logger: zap.NewNop(),
	}
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case p, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, string(p))
		default:
			return out
		}
	}
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room, other := uuid.New(), uuid.New()

	a := newTestClient(room, 4)
	b := newTestClient(room, 4)
	c := newTestClient(other, 4)
	hub.Join(a)
	hub.Join(b)
	hub.Join(c)

	hub.Broadcast(room, map[string]string{"message": "hi"})

	assert.Equal(t, []string{`{"message":"hi"}`}, drain(a))
	assert.Equal(t, []string{`{"message":"hi"}`}, drain(b))
	assert.Empty(t, drain(c))
}

func TestBroadcastPreservesOrder(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := uuid.New()
	a := newTestClient(room, 8)
	hub.Join(a)

	for i := 1; i <= 3; i++ {
		hub.Broadcast(room, map[string]int{"seq": i})
	}

	assert.Equal(t, []string{`{"seq":1}`, `{"seq":2}`, `{"seq":3}`}, drain(a))
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := uuid.New()
	slow := newTestClient(room, 1)
	fast := newTestClient(room, 8)
	hub.Join(slow)
	hub.Join(fast)

	hub.Broadcast(room, "one")
	hub.Broadcast(room, "two")

	assert.Equal(t, 1, hub.RoomSize(room))
	assert.Equal(t, []string{`"one"`}, drain(slow), "buffered frame is kept, then the channel is closed")
	_, open := <-slow.send
	assert.False(t, open)
	assert.Equal(t, []string{`"one"`, `"two"`}, drain(fast))
}

func TestLeaveIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := uuid.New()
	a := newTestClient(room, 1)
	hub.Join(a)

	hub.Leave(a)
	hub.Leave(a)

	assert.Equal(t, 0, hub.RoomSize(room))
	hub.Broadcast(room, "nobody listens")
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newTestClient(uuid.New(), 1)
	b := newTestClient(uuid.New(), 1)
	hub.Join(a)
	hub.Join(b)

	hub.Close()

	assert.Equal(t, 0, hub.RoomSize(a.roomID))
	assert.Equal(t, 0, hub.RoomSize(b.roomID))
}

func TestServeOverWebSocket(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := uuid.New()

	post := func(_ context.Context, roomID, userID uuid.UUID, body string) error {
		if body == "" {
			return errors.New("empty")
		}
		hub.Broadcast(roomID, map[string]string{"message": body, "sender": userID.String()})
		return nil
	}
	errText := func(err error) string { return "rejected: " + err.Error() }

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, room, uuid.New(), post, errText, zap.NewNop()).Serve(r.Context())
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	alice, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer bob.Close()

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, alice.WriteJSON(Inbound{Message: "  hello  "}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got map[string]string
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "hello", got["message"], "sender gets the stored copy too")
	}

	// A rejected post is answered to the sender only.
	require.NoError(t, bob.WriteJSON(Inbound{Message: ""}))
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply map[string]string
	require.NoError(t, bob.ReadJSON(&reply))
	assert.Equal(t, "rejected: empty", reply["error"])

	require.NoError(t, alice.Close())
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, 2*time.Second, 5*time.Millisecond)

	var raw json.RawMessage
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	assert.Error(t, bob.ReadJSON(&raw), "alice leaving sends bob nothing")
}
