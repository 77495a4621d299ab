package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
	"go.uber.org/zap"
)

// Adoption actions accepted by Respond.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// AdoptionService runs the request/respond exchange between an adopter
// and a pet's owner.
type AdoptionService struct {
	requests repository.AdoptionRepository
	pets     repository.PetRepository
	users    repository.UserRepository
	notifier Notifier
	mail     mail.Scheduler
	logger   *zap.Logger
}

func NewAdoptionService(
	requests repository.AdoptionRepository,
	pets repository.PetRepository,
	users repository.UserRepository,
	notifier Notifier,
	scheduler mail.Scheduler,
	logger *zap.Logger,
) *AdoptionService {
	return &AdoptionService{
		requests: requests,
		pets:     pets,
		users:    users,
		notifier: notifier,
		mail:     scheduler,
		logger:   logger,
	}
}

// Create opens a pending request and tells the pet's owner about it.
func (s *AdoptionService) Create(ctx context.Context, caller Caller, petID uuid.UUID, message string) (*models.AdoptionRequest, error) {
	if caller.Role != models.RoleAdopter {
		return nil, apperr.Forbidden("only adopters can request adoption")
	}
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, internal("failed to create adoption request", err)
	}
	if pet == nil {
		return nil, apperr.NotFound("pet not found")
	}

	req, err := s.requests.Create(ctx, pet.ID, caller.ID, message)
	if err != nil {
		return nil, internal("failed to create adoption request", err)
	}

	s.logger.Info("adoption requested",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("pet_id", pet.ID),
	)
	notify(ctx, s.notifier, pet.OwnerID,
		fmt.Sprintf("%s wants to adopt %s!", req.Adopter, pet.Name),
		s.logger)

	return req, nil
}

// List shows adopters their own requests, owners the requests for their
// pets, and admins all of them.
func (s *AdoptionService) List(ctx context.Context, caller Caller) ([]models.AdoptionRequest, error) {
	var f repository.AdoptionFilter
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleOwner:
		f.OwnerID = &caller.ID
	default:
		f.AdopterID = &caller.ID
	}
	list, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, internal("failed to list adoption requests", err)
	}
	return list, nil
}

// Respond approves or rejects a request. Only the pet's owner may call
// it. Responding to a request that was already decided is allowed and
// overwrites the decision; it is logged so it shows up in review.
//
// Approving one request leaves the pet's other requests untouched.
func (s *AdoptionService) Respond(ctx context.Context, caller Caller, requestID uuid.UUID, action string) (*models.AdoptionRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, internal("failed to respond to adoption request", err)
	}
	if req == nil {
		return nil, apperr.NotFound("adoption request not found")
	}
	if req.OwnerID != caller.ID {
		return nil, apperr.Forbidden("only the pet's owner can respond")
	}

	var status models.Status
	switch action {
	case ActionApprove:
		status = models.StatusApproved
	case ActionReject:
		status = models.StatusRejected
	default:
		return nil, apperr.InvalidArgument("action must be approve or reject")
	}

	if req.Status != models.StatusPending {
		s.logger.Warn("adoption request re-decided",
			zap.Stringer("request_id", req.ID),
			zap.String("from", string(req.Status)),
			zap.String("to", string(status)),
		)
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, status); err != nil {
		return nil, internal("failed to respond to adoption request", err)
	}
	req.Status = status

	notify(ctx, s.notifier, req.AdopterID,
		fmt.Sprintf("Your adoption request for %s was %s!", req.PetName, status),
		s.logger)
	s.scheduleStatusEmail(ctx, req)

	return req, nil
}

func (s *AdoptionService) scheduleStatusEmail(ctx context.Context, req *models.AdoptionRequest) {
	adopter, err := s.users.GetByID(ctx, req.AdopterID)
	if err != nil || adopter == nil || adopter.Email == "" {
		if err != nil {
			s.logger.Warn("failed to load adopter for status email", zap.Error(err))
		}
		return
	}
	owner, err := s.users.GetByID(ctx, req.OwnerID)
	if err != nil || owner == nil {
		if err != nil {
			s.logger.Warn("failed to load owner for status email", zap.Error(err))
		}
		return
	}
	schedule(ctx, s.mail, adoptionStatusEmail(req, adopter, owner), s.logger)
}

func adoptionStatusEmail(req *models.AdoptionRequest, adopter, owner *models.User) mail.Job {
	ownerName := owner.Name
	if ownerName == "" {
		ownerName = owner.Username
	}
	contact := owner.Contact
	if contact == "" {
		contact = "Not provided"
	}

	job := mail.Job{Tag: "adoption_" + string(req.Status), To: []string{adopter.Email}}
	if req.Status == models.StatusApproved {
		job.Subject = fmt.Sprintf("Your adoption request for %s has been approved!", req.PetName)
		job.Body = fmt.Sprintf(
			"Dear %s,\n\n"+
				"Good news! Your adoption request for '%s' has been approved by %s.\n\n"+
				"You can now contact the owner for further details:\n"+
				"Email: %s\n"+
				"Contact: %s\n\n"+
				"Thank you for choosing to adopt, you're giving a pet a loving home.\n\n"+
				"The PawsNest Team",
			adopter.Username, req.PetName, ownerName, owner.Email, contact,
		)
		return job
	}

	job.Subject = fmt.Sprintf("Your adoption request for %s has been rejected", req.PetName)
	job.Body = fmt.Sprintf(
		"Dear %s,\n\n"+
			"We're sorry to inform you that your adoption request for '%s' was not approved by %s.\n\n"+
			"Don't be discouraged, there are many other pets looking for a loving home!\n"+
			"You can browse other available pets on our platform anytime.\n\n"+
			"The PawsNest Team",
		adopter.Username, req.PetName, ownerName,
	)
	return job
}
