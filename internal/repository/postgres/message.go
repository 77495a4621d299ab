package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsnest/backend/internal/models"
)

type ChatMessageStore struct {
	pool *pgxpool.Pool
}

func NewChatMessageStore(pool *pgxpool.Pool) *ChatMessageStore {
	return &ChatMessageStore{pool: pool}
}

// Create persists one message under a per-room transaction-scoped
// advisory lock.
//
// Why the lock?
//   - seq is max(seq)+1 for the room. Two inserts racing without the
//     lock would read the same max and one would fail UNIQUE (room_id, seq).
//   - With the lock held, created_at comes from clock_timestamp() (not
//     now(), which is the transaction start), so timestamps are assigned
//     in the same order as seq even across API servers.
//
// The lock is released automatically at commit or rollback.
func (s *ChatMessageStore) Create(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin message tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, roomID.String()); err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}

	query := `
		WITH m AS (
			INSERT INTO chat_messages (room_id, seq, sender_id, body, created_at)
			SELECT $1::uuid, coalesce(max(seq), 0) + 1, $2::uuid, $3::text, clock_timestamp()
			FROM chat_messages
			WHERE room_id = $1
			RETURNING id, room_id, seq, sender_id, body, is_read, created_at
		)
		SELECT m.id, m.room_id, m.seq, m.sender_id, u.username, m.body, m.is_read, m.created_at
		FROM m
		JOIN users u ON u.id = m.sender_id`

	var msg models.ChatMessage
	err = tx.QueryRow(ctx, query, roomID, senderID, body).Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.Seq,
		&msg.SenderID,
		&msg.SenderName,
		&msg.Body,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}
	return &msg, nil
}

// ListByRoom returns the whole history. There is no cursor: rooms are
// one conversation about one pet and stay small.
func (s *ChatMessageStore) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	query := `
		SELECT m.id, m.room_id, m.seq, m.sender_id, u.username, m.body, m.is_read, m.created_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC, m.seq ASC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.Seq,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Body,
			&msg.IsRead,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *ChatMessageStore) MarkRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error) {
	query := `
		UPDATE chat_messages
		SET is_read = true
		WHERE room_id = $1 AND sender_id <> $2 AND NOT is_read`

	tag, err := s.pool.Exec(ctx, query, roomID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}
