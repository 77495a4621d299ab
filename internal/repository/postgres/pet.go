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

// is_adopted is derived: a pet is adopted once any of its requests has
// been approved.
const petSelect = `
	SELECT p.id, p.owner_id, u.username, p.name, p.breed, p.gender, p.size, p.age,
	       p.description, p.location, p.contact, p.image_url,
	       EXISTS (
	           SELECT 1 FROM adoption_requests ar
	           WHERE ar.pet_id = p.id AND ar.status = 'approved'
	       ) AS is_adopted,
	       p.created_at
	FROM pets p
	JOIN users u ON u.id = p.owner_id`

type PetStore struct {
	pool *pgxpool.Pool
}

func NewPetStore(pool *pgxpool.Pool) *PetStore {
	return &PetStore{pool: pool}
}

func scanPet(row pgx.Row) (*models.Pet, error) {
	var p models.Pet
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.OwnerName,
		&p.Name,
		&p.Breed,
		&p.Gender,
		&p.Size,
		&p.Age,
		&p.Description,
		&p.Location,
		&p.Contact,
		&p.ImageURL,
		&p.IsAdopted,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PetStore) Create(ctx context.Context, p *models.Pet) (*models.Pet, error) {
	query := `
		INSERT INTO pets (owner_id, name, breed, gender, size, age, description, location, contact, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, query,
		p.OwnerID, p.Name, p.Breed, p.Gender, p.Size, p.Age, p.Description, p.Location, p.Contact, p.ImageURL,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}

	// Read back through the join so the response carries the owner name.
	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("insert pet: row %s vanished", id)
	}
	return created, nil
}

func (s *PetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	p, err := scanPet(s.pool.QueryRow(ctx, petSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) List(ctx context.Context, ownerID *uuid.UUID) ([]models.Pet, error) {
	query := petSelect + `
		WHERE ($1::uuid IS NULL OR p.owner_id = $1)
		ORDER BY p.created_at DESC`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	pets := make([]models.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pets: %w", err)
	}
	return pets, nil
}

func (s *PetStore) Update(ctx context.Context, p *models.Pet) error {
	query := `
		UPDATE pets
		SET name = $2, breed = $3, gender = $4, size = $5, age = $6,
		    description = $7, location = $8, contact = $9, image_url = $10
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Breed, p.Gender, p.Size, p.Age, p.Description, p.Location, p.Contact, p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	return nil
}

func (s *PetStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}
