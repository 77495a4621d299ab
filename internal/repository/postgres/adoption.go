package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

const adoptionSelect = `
	SELECT ar.id, ar.pet_id, p.name, ar.adopter_id, a.username, p.owner_id, o.username,
	       ar.message, ar.status, ar.created_at
	FROM adoption_requests ar
	JOIN pets p ON p.id = ar.pet_id
	JOIN users a ON a.id = ar.adopter_id
	JOIN users o ON o.id = p.owner_id`

type AdoptionStore struct {
	pool *pgxpool.Pool
}

func NewAdoptionStore(pool *pgxpool.Pool) *AdoptionStore {
	return &AdoptionStore{pool: pool}
}

func scanAdoption(row pgx.Row) (*models.AdoptionRequest, error) {
	var r models.AdoptionRequest
	err := row.Scan(
		&r.ID,
		&r.PetID,
		&r.PetName,
		&r.AdopterID,
		&r.Adopter,
		&r.OwnerID,
		&r.PetOwner,
		&r.Message,
		&r.Status,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *AdoptionStore) Create(ctx context.Context, petID, adopterID uuid.UUID, message string) (*models.AdoptionRequest, error) {
	query := `
		INSERT INTO adoption_requests (pet_id, adopter_id, message, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id`

	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, query, petID, adopterID, message).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert adoption request: %w", err)
	}

	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("insert adoption request: row %s vanished", id)
	}
	return created, nil
}

func (s *AdoptionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	r, err := scanAdoption(s.pool.QueryRow(ctx, adoptionSelect+` WHERE ar.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adoption request: %w", err)
	}
	return r, nil
}

func (s *AdoptionStore) List(ctx context.Context, f repository.AdoptionFilter) ([]models.AdoptionRequest, error) {
	query := adoptionSelect + `
		WHERE ($1::uuid IS NULL OR ar.adopter_id = $1)
		  AND ($2::uuid IS NULL OR p.owner_id = $2)
		ORDER BY ar.created_at DESC`

	rows, err := s.pool.Query(ctx, query, f.AdopterID, f.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list adoption requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.AdoptionRequest, 0)
	for rows.Next() {
		r, err := scanAdoption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adoption request: %w", err)
		}
		requests = append(requests, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adoption requests: %w", err)
	}
	return requests, nil
}

func (s *AdoptionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	_, err := s.pool.Exec(ctx, `UPDATE adoption_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update adoption status: %w", err)
	}
	return nil
}
