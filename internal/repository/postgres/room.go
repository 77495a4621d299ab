package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsnest/backend/internal/models"
)

const roomSelect = `
	SELECT r.id, r.pet_id, p.name, r.adopter_id, a.username, r.owner_id, o.username, r.created_at
	FROM chat_rooms r
	JOIN pets p ON p.id = r.pet_id
	JOIN users a ON a.id = r.adopter_id
	JOIN users o ON o.id = r.owner_id`

type ChatRoomStore struct {
	pool *pgxpool.Pool
}

func NewChatRoomStore(pool *pgxpool.Pool) *ChatRoomStore {
	return &ChatRoomStore{pool: pool}
}

func scanRoom(row pgx.Row) (*models.ChatRoom, error) {
	var r models.ChatRoom
	err := row.Scan(
		&r.ID,
		&r.PetID,
		&r.PetName,
		&r.AdopterID,
		&r.AdopterName,
		&r.OwnerID,
		&r.OwnerName,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrCreate relies on the UNIQUE (pet_id, adopter_id, owner_id)
// constraint. ON CONFLICT DO NOTHING makes the losing insert of a race
// return no row instead of an error; we then read the winner's row.
func (s *ChatRoomStore) GetOrCreate(ctx context.Context, petID, adopterID, ownerID uuid.UUID) (*models.ChatRoom, error) {
	insert := `
		INSERT INTO chat_rooms (pet_id, adopter_id, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (pet_id, adopter_id, owner_id) DO NOTHING
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, insert, petID, adopterID, ownerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing := `
			SELECT id FROM chat_rooms
			WHERE pet_id = $1 AND adopter_id = $2 AND owner_id = $3`
		err = s.pool.QueryRow(ctx, existing, petID, adopterID, ownerID).Scan(&id)
	}
	if err != nil {
		return nil, fmt.Errorf("get or create room: %w", err)
	}

	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("get or create room: row %s vanished", id)
	}
	return room, nil
}

func (s *ChatRoomStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	r, err := scanRoom(s.pool.QueryRow(ctx, roomSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (s *ChatRoomStore) ListByAdopter(ctx context.Context, adopterID uuid.UUID) ([]models.ChatRoom, error) {
	return s.list(ctx, roomSelect+` WHERE r.adopter_id = $1 ORDER BY r.created_at DESC`, adopterID)
}

func (s *ChatRoomStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChatRoom, error) {
	return s.list(ctx, roomSelect+` WHERE r.owner_id = $1 ORDER BY r.created_at DESC`, ownerID)
}

func (s *ChatRoomStore) list(ctx context.Context, query string, userID uuid.UUID) ([]models.ChatRoom, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.ChatRoom, 0)
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}
