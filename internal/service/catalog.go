package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
	"go.uber.org/zap"
)

// CatalogService manages pet listings. Only owners list pets, and only
// a pet's owner can change or remove it.
type CatalogService struct {
	pets   repository.PetRepository
	logger *zap.Logger
}

func NewCatalogService(pets repository.PetRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{pets: pets, logger: logger}
}

// PetInput carries the editable pet attributes. For a partial update a
// nil field means "keep the current value".
type PetInput struct {
	Name        *string
	Breed       *string
	Gender      *string
	Size        *string
	Age         *string
	Description *string
	Location    *string
	Contact     *string
	ImageURL    *string
}

func (in PetInput) apply(p *models.Pet, replace bool) {
	set := func(dst *string, src *string) {
		switch {
		case src != nil:
			*dst = *src
		case replace:
			*dst = ""
		}
	}
	set(&p.Name, in.Name)
	set(&p.Breed, in.Breed)
	set(&p.Gender, in.Gender)
	set(&p.Size, in.Size)
	set(&p.Age, in.Age)
	set(&p.Description, in.Description)
	set(&p.Location, in.Location)
	set(&p.Contact, in.Contact)
	set(&p.ImageURL, in.ImageURL)
	p.Name = strings.TrimSpace(p.Name)
}

func (s *CatalogService) CreatePet(ctx context.Context, caller Caller, in PetInput) (*models.Pet, error) {
	if caller.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can list pets")
	}
	p := &models.Pet{OwnerID: caller.ID}
	in.apply(p, true)
	if p.Name == "" {
		return nil, apperr.InvalidArgument("pet name is required")
	}

	created, err := s.pets.Create(ctx, p)
	if err != nil {
		return nil, internal("failed to create pet", err)
	}
	s.logger.Info("pet listed", zap.Stringer("pet_id", created.ID), zap.Stringer("owner_id", caller.ID))
	return created, nil
}

// ListPets shows an owner their own pets and everyone else every pet.
func (s *CatalogService) ListPets(ctx context.Context, caller Caller) ([]models.Pet, error) {
	var ownerID *uuid.UUID
	if caller.Role == models.RoleOwner {
		ownerID = &caller.ID
	}
	pets, err := s.pets.List(ctx, ownerID)
	if err != nil {
		return nil, internal("failed to list pets", err)
	}
	return pets, nil
}

func (s *CatalogService) GetPet(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	p, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to load pet", err)
	}
	if p == nil {
		return nil, apperr.NotFound("pet not found")
	}
	return p, nil
}

// UpdatePet replaces every field when replace is true (PUT) and merges
// the non-nil fields otherwise (PATCH).
func (s *CatalogService) UpdatePet(ctx context.Context, caller Caller, id uuid.UUID, in PetInput, replace bool) (*models.Pet, error) {
	p, err := s.ownedPet(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	in.apply(p, replace)
	if p.Name == "" {
		return nil, apperr.InvalidArgument("pet name is required")
	}
	if err := s.pets.Update(ctx, p); err != nil {
		return nil, internal("failed to update pet", err)
	}
	return p, nil
}

func (s *CatalogService) DeletePet(ctx context.Context, caller Caller, id uuid.UUID) error {
	if _, err := s.ownedPet(ctx, caller, id); err != nil {
		return err
	}
	if err := s.pets.Delete(ctx, id); err != nil {
		return internal("failed to delete pet", err)
	}
	s.logger.Info("pet removed", zap.Stringer("pet_id", id))
	return nil
}

func (s *CatalogService) ownedPet(ctx context.Context, caller Caller, id uuid.UUID) (*models.Pet, error) {
	p, err := s.GetPet(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != caller.ID {
		return nil, apperr.Forbidden("only the pet's owner can change it")
	}
	return p, nil
}
