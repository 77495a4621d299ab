package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login and the caller's own profile.
// Register, login and password reset are the only public write
// endpoints; they run behind the IP rate limiter instead of
// AuthMiddleware.
type AuthHandler struct {
	identity *service.IdentityService
	logger   *zap.Logger
}

func NewAuthHandler(identity *service.IdentityService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, logger: logger}
}

type registerRequest struct {
	Username string      `json:"username" binding:"required,notblank"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"user_type" binding:"required,oneof=adopter owner"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
	Contact  string      `json:"contact"`
}

// loginRequest accepts either an email or a username in "email", the
// way the web client sends it. "username" is accepted as an alias.
type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

func (r loginRequest) identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.identity.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Name:     req.Name,
		Location: req.Location,
		Contact:  req.Contact,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	msg := "Registration successful. You can now log in."
	if !u.Approved {
		msg = "Registration successful. Your account is awaiting admin approval."
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": u})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.identifier() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email or username is required"})
		return
	}

	res, err := h.identity.Login(c.Request.Context(), req.identifier(), req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.identity.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileRequest struct {
	Username *string `json:"username" binding:"omitempty,notblank"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Contact  *string `json:"contact"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// UpdateProfile handles PATCH /v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.identity.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), service.ProfilePatch{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Location: req.Location,
		Contact:  req.Contact,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully!", "user": u})
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordReset handles POST /v1/auth/password-reset
//
// The answer is the same whether or not the address is registered.
func (h *AuthHandler) PasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.identity.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If that email is registered, a password reset link has been sent."})
}

type passwordResetConfirmRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Token    string    `json:"token" binding:"required"`
	Password string    `json:"password" binding:"required,min=6"`
}

// PasswordResetConfirm handles POST /v1/auth/password-reset-confirm
func (h *AuthHandler) PasswordResetConfirm(c *gin.Context) {
	var req passwordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.identity.ConfirmPasswordReset(c.Request.Context(), req.UserID, req.Token, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful!"})
}
