package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatFixture seeds an owner with a pet and an adopter with an open room.
type chatFixture struct {
	env     *testEnv
	owner   *models.User
	adopter *models.User
	pet     *models.Pet
	room    *models.ChatRoom
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	env := newEnv(t)
	owner := env.db.addUser("shelter", models.RoleOwner, true)
	adopter := env.db.addUser("ada", models.RoleAdopter, true)
	pet := env.db.addPet(owner, "Rex")

	room, err := env.chat.OpenRoom(context.Background(), adopter.ID, pet.ID)
	require.NoError(t, err)
	return &chatFixture{env: env, owner: owner, adopter: adopter, pet: pet, room: room}
}

func TestOpenRoomIsIdempotent(t *testing.T) {
	f := newChatFixture(t)

	again, err := f.env.chat.OpenRoom(context.Background(), f.adopter.ID, f.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, f.room.ID, again.ID)
	assert.Equal(t, f.owner.ID, again.OwnerID)
	assert.Equal(t, "Rex", again.PetName)
	assert.Len(t, f.env.db.rooms, 1)
}

func TestOpenRoomConcurrentCallsShareOneRoom(t *testing.T) {
	env := newEnv(t)
	owner := env.db.addUser("shelter", models.RoleOwner, true)
	adopter := env.db.addUser("ada", models.RoleAdopter, true)
	pet := env.db.addPet(owner, "Rex")

	const n = 8
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := env.chat.OpenRoom(context.Background(), adopter.ID, pet.ID)
			if assert.NoError(t, err) {
				ids[i] = room.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestOpenRoomErrors(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.env.chat.OpenRoom(ctx, f.adopter.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.env.chat.OpenRoom(ctx, f.owner.ID, f.pet.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPostMessageOrderAndBroadcast(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	m1, err := f.env.chat.PostMessage(ctx, f.room.ID, f.adopter.ID, "hi")
	require.NoError(t, err)
	m2, err := f.env.chat.PostMessage(ctx, f.room.ID, f.owner.ID, "  hello back ")
	require.NoError(t, err)

	assert.Equal(t, "hello back", m2.Body)
	assert.Less(t, m1.Seq, m2.Seq)

	history, err := f.env.chat.ListMessages(ctx, f.owner.ID, f.room.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Body)
	assert.Equal(t, "ada", history[0].SenderName)
	assert.Equal(t, "hello back", history[1].Body)

	sent := f.env.hub.all()
	require.Len(t, sent, 2)
	for i, b := range sent {
		assert.Equal(t, f.room.ID, b.roomID)
		msg, ok := b.value.(*models.ChatMessage)
		require.True(t, ok)
		assert.Equal(t, history[i].ID, msg.ID)
	}
}

func TestPostMessageRejects(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	stranger := f.env.db.addUser("eve", models.RoleAdopter, true)

	tests := []struct {
		name   string
		room   uuid.UUID
		sender uuid.UUID
		body   string
		want   error
	}{
		{"empty body", f.room.ID, f.adopter.ID, "", apperr.ErrInvalidArgument},
		{"whitespace body", f.room.ID, f.owner.ID, " \n\t ", apperr.ErrInvalidArgument},
		{"not a participant", f.room.ID, stranger.ID, "hi", apperr.ErrForbidden},
		{"unknown room", uuid.New(), f.adopter.ID, "hi", apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.chat.PostMessage(ctx, tt.room, tt.sender, tt.body)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, f.env.db.messageCount())
	assert.Empty(t, f.env.hub.all())
}

func TestConcurrentPostsBroadcastInStoredOrder(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := f.adopter.ID
			if i%2 == 0 {
				sender = f.owner.ID
			}
			assert.NoError(t, f.env.chat.Post(ctx, f.room.ID, sender, "msg"))
		}(i)
	}
	wg.Wait()

	sent := f.env.hub.all()
	require.Len(t, sent, n)
	for i, b := range sent {
		assert.Equal(t, int64(i+1), b.value.(*models.ChatMessage).Seq)
	}
}

func TestRoomAccess(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	stranger := f.env.db.addUser("eve", models.RoleAdopter, true)

	_, err := f.env.chat.GetRoom(ctx, f.owner.ID, f.room.ID)
	assert.NoError(t, err)

	_, err = f.env.chat.ListMessages(ctx, stranger.ID, f.room.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	ownerRooms, err := f.env.chat.ListRooms(ctx, callerOf(f.owner))
	require.NoError(t, err)
	require.Len(t, ownerRooms, 1)

	adopterRooms, err := f.env.chat.ListRooms(ctx, callerOf(f.adopter))
	require.NoError(t, err)
	require.Len(t, adopterRooms, 1)
	assert.Equal(t, "shelter", adopterRooms[0].OwnerName)

	none, err := f.env.chat.ListRooms(ctx, callerOf(stranger))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMarkRoomRead(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.env.chat.PostMessage(ctx, f.room.ID, f.adopter.ID, "one")
	require.NoError(t, err)
	_, err = f.env.chat.PostMessage(ctx, f.room.ID, f.adopter.ID, "two")
	require.NoError(t, err)
	_, err = f.env.chat.PostMessage(ctx, f.room.ID, f.owner.ID, "three")
	require.NoError(t, err)

	n, err := f.env.chat.MarkRoomRead(ctx, f.owner.ID, f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "own messages are not counted")

	n, err = f.env.chat.MarkRoomRead(ctx, f.owner.ID, f.room.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRoomLocksAreReleased(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.env.chat.PostMessage(context.Background(), f.room.ID, f.adopter.ID, "hi")
	require.NoError(t, err)

	f.env.chat.locks.mu.Lock()
	defer f.env.chat.locks.mu.Unlock()
	assert.Empty(t, f.env.chat.locks.m)
}
