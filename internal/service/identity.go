package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/auth"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
	"go.uber.org/zap"
)

// IdentityService handles accounts: registration, login, profiles and
// the admin's owner-approval queue.
type IdentityService struct {
	users     repository.UserRepository
	mail      mail.Scheduler
	jwtSecret string
	jwtTTL    time.Duration
	logger    *zap.Logger

	resetURL string
	resetTTL time.Duration
}

const (
	defaultResetURL = "http://localhost:5173/reset-password"
	defaultResetTTL = time.Hour
)

func NewIdentityService(users repository.UserRepository, scheduler mail.Scheduler, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		users:     users,
		mail:      scheduler,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger,
		resetURL:  defaultResetURL,
		resetTTL:  defaultResetTTL,
	}
}

// SetPasswordReset overrides where reset links point and how long they
// stay valid. Zero values keep the defaults.
func (s *IdentityService) SetPasswordReset(baseURL string, ttl time.Duration) {
	if baseURL != "" {
		s.resetURL = strings.TrimRight(baseURL, "/")
	}
	if ttl > 0 {
		s.resetTTL = ttl
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Name     string
	Location string
	Contact  string
}

// Register creates an adopter or owner account. Adopters can log in
// straight away; owners wait for an admin to approve them. Admin
// accounts are never created here.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.InvalidArgument("username, email and password are required")
	}
	if in.Role != models.RoleAdopter && in.Role != models.RoleOwner {
		return nil, apperr.InvalidArgument("user_type must be adopter or owner")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal("registration failed", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Approved:     in.Role == models.RoleAdopter,
		Name:         in.Name,
		Location:     in.Location,
		Contact:      in.Contact,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("username or email already registered")
		}
		return nil, internal("registration failed", err)
	}

	s.logger.Info("user registered",
		zap.Stringer("user_id", u.ID),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	Token    string      `json:"token"`
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"user_type"`
}

// Login accepts an email or a username. Unknown user and wrong password
// get the same answer so the endpoint can't be used to probe accounts.
func (s *IdentityService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	u, err := s.users.GetByLogin(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, internal("login failed", err)
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if u.Role == models.RoleOwner && !u.Approved {
		return nil, apperr.Forbidden("your account is awaiting admin approval")
	}

	token, err := auth.GenerateToken(u.ID, u.Role, u.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, internal("login failed", err)
	}
	return &LoginResult{
		Token:    token,
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	}, nil
}

func (s *IdentityService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internal("failed to load profile", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// ProfilePatch holds the fields a user may change on themselves. A nil
// field is left untouched.
type ProfilePatch struct {
	Username *string
	Email    *string
	Name     *string
	Location *string
	Contact  *string
	Password *string
}

func (s *IdentityService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		if strings.TrimSpace(*patch.Username) == "" {
			return nil, apperr.InvalidArgument("username cannot be empty")
		}
		u.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, apperr.InvalidArgument("email cannot be empty")
		}
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Location != nil {
		u.Location = *patch.Location
	}
	if patch.Contact != nil {
		u.Contact = *patch.Contact
	}
	if patch.Password != nil && *patch.Password != "" {
		if u.PasswordHash, err = auth.HashPassword(*patch.Password); err != nil {
			return nil, internal("failed to update profile", err)
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("username or email already taken")
		}
		return nil, internal("failed to update profile", err)
	}
	return u, nil
}

func (s *IdentityService) PendingOwners(ctx context.Context) ([]models.User, error) {
	approved := false
	return s.listOwners(ctx, &approved)
}

func (s *IdentityService) Owners(ctx context.Context) ([]models.User, error) {
	return s.listOwners(ctx, nil)
}

// ApprovedOwners backs the owner dropdown on the booking forms.
func (s *IdentityService) ApprovedOwners(ctx context.Context) ([]models.User, error) {
	approved := true
	return s.listOwners(ctx, &approved)
}

func (s *IdentityService) listOwners(ctx context.Context, approved *bool) ([]models.User, error) {
	owners, err := s.users.ListOwners(ctx, approved)
	if err != nil {
		return nil, internal("failed to list owners", err)
	}
	return owners, nil
}

// ApproveOwner lets an owner log in. The approval email goes out only
// when this call is the one that flipped the flag; approving an owner
// twice sends one email.
func (s *IdentityService) ApproveOwner(ctx context.Context, ownerID uuid.UUID) (*models.User, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, internal("failed to approve owner", err)
	}
	if owner == nil || owner.Role != models.RoleOwner {
		return nil, apperr.NotFound("owner not found")
	}

	changed, err := s.users.ApproveOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("failed to approve owner", err)
	}
	owner.Approved = true

	if changed {
		s.logger.Info("owner approved", zap.Stringer("owner_id", ownerID))
		if owner.Email != "" {
			schedule(ctx, s.mail, ownerApprovedEmail(owner), s.logger)
		}
	}
	return owner, nil
}

func (s *IdentityService) DeleteOwner(ctx context.Context, ownerID uuid.UUID) error {
	deleted, err := s.users.DeleteOwner(ctx, ownerID)
	if err != nil {
		return internal("failed to delete owner", err)
	}
	if !deleted {
		return apperr.NotFound("owner not found")
	}
	s.logger.Info("owner deleted", zap.Stringer("owner_id", ownerID))
	return nil
}

// EnsureAdmin creates the bootstrap admin if no user has that email yet.
// It reports whether an account was created.
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	_, err = s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Approved:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

// RequestPasswordReset emails a reset link to the account with that
// address. An unknown address gets the same nil result, so the endpoint
// can't be used to find out who is registered.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.InvalidArgument("email is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internal("failed to request password reset", err)
	}
	if u == nil {
		s.logger.Debug("password reset for unknown email")
		return nil
	}

	token, err := auth.GenerateResetToken(u.ID, u.PasswordHash, s.jwtSecret, s.resetTTL)
	if err != nil {
		return internal("failed to request password reset", err)
	}
	link := fmt.Sprintf("%s/%s/%s/", s.resetURL, u.ID, token)

	s.logger.Info("password reset requested", zap.Stringer("user_id", u.ID))
	schedule(ctx, s.mail, passwordResetEmail(u, link), s.logger)
	return nil
}

// ConfirmPasswordReset sets a new password from a reset link. The link
// stops working as soon as the password changes.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, userID uuid.UUID, token, password string) error {
	if password == "" {
		return apperr.InvalidArgument("password is required")
	}
	invalid := apperr.InvalidArgument("invalid or expired token")

	claims, err := auth.ParseResetToken(token, s.jwtSecret)
	if err != nil || claims.UserID != userID {
		return invalid
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return internal("failed to reset password", err)
	}
	if u == nil || auth.PasswordFingerprint(u.PasswordHash) != claims.Fingerprint {
		return invalid
	}

	if u.PasswordHash, err = auth.HashPassword(password); err != nil {
		return internal("failed to reset password", err)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return internal("failed to reset password", err)
	}

	s.logger.Info("password reset", zap.Stringer("user_id", u.ID))
	return nil
}

func passwordResetEmail(u *models.User, link string) mail.Job {
	return mail.Job{
		Tag:     "password_reset",
		To:      []string{u.Email},
		Subject: "Password Reset Request",
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Click the link below to reset your password:\n\n%s\n\n"+
				"If you did not request this, you can safely ignore this email.",
			u.Username, link,
		),
	}
}

func ownerApprovedEmail(owner *models.User) mail.Job {
	return mail.Job{
		Tag:     "owner_approved",
		To:      []string{owner.Email},
		Subject: "Your Account Has Been Approved!",
		Body: fmt.Sprintf(
			"Hi %s,\n\n"+
				"Great news! Your shelter account has been approved by the admin.\n"+
				"You can now log in to your account and start managing pets and bookings.\n\n"+
				"Welcome to PawsNest!\n\n"+
				"The PawsNest Team",
			owner.Username,
		),
	}
}
