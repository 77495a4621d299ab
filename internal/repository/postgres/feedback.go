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

const feedbackSelect = `
	SELECT f.id, f.adopter_id, u.username, f.type, f.message, f.reply, f.created_at
	FROM feedbacks f
	JOIN users u ON u.id = f.adopter_id`

type FeedbackStore struct {
	pool *pgxpool.Pool
}

func NewFeedbackStore(pool *pgxpool.Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	if err := row.Scan(&f.ID, &f.AdopterID, &f.AdopterName, &f.Type, &f.Message, &f.Reply, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FeedbackStore) Create(ctx context.Context, adopterID uuid.UUID, typ models.FeedbackType, message string) (*models.Feedback, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO feedbacks (adopter_id, type, message) VALUES ($1, $2, $3) RETURNING id`,
		adopterID, typ, message,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return s.mustGet(ctx, id)
}

func (s *FeedbackStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	f, err := scanFeedback(s.pool.QueryRow(ctx, feedbackSelect+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return f, nil
}

func (s *FeedbackStore) List(ctx context.Context) ([]models.Feedback, error) {
	rows, err := s.pool.Query(ctx, feedbackSelect+` ORDER BY f.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	feedbacks := make([]models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return feedbacks, nil
}

func (s *FeedbackStore) SetReply(ctx context.Context, id uuid.UUID, reply string) (*models.Feedback, error) {
	if _, err := s.pool.Exec(ctx, `UPDATE feedbacks SET reply = $2 WHERE id = $1`, id, reply); err != nil {
		return nil, fmt.Errorf("set feedback reply: %w", err)
	}
	return s.mustGet(ctx, id)
}

func (s *FeedbackStore) mustGet(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("feedback %s not found after write", id)
	}
	return f, nil
}
