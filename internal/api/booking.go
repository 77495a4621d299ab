package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// BookingHandler serves all three booking kinds. Routes are registered
// once per kind; the kind is bound into the handler closures.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings *service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// bookingRequest holds the fields every kind shares. The kind-specific
// fields sit next to them in the same flat JSON object and are decoded
// separately by decodeDetails.
type bookingRequest struct {
	PetName      string `json:"pet_name" binding:"required,notblank"`
	Phone        string `json:"phone" binding:"required,notblank"`
	PetOwnerName string `json:"pet_owner_name"`
	// The owner arrives as selected_owner_id, or as selected_owner from
	// older clients. Both are strings so an empty or malformed id is
	// ignored like any other owner that doesn't resolve.
	SelectedOwnerID string `json:"selected_owner_id"`
	SelectedOwner   string `json:"selected_owner"`
}

func (r bookingRequest) selectedOwner() *uuid.UUID {
	raw := strings.TrimSpace(r.SelectedOwnerID)
	if raw == "" {
		raw = strings.TrimSpace(r.SelectedOwner)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func decodeDetails(c *gin.Context, kind models.BookingKind) (models.BookingDetails, error) {
	switch kind {
	case models.BookingShelter:
		var d models.ShelterDetails
		err := c.ShouldBindBodyWith(&d, binding.JSON)
		return d, err
	case models.BookingVaccination:
		var d models.VaccinationDetails
		err := c.ShouldBindBodyWith(&d, binding.JSON)
		return d, err
	default:
		var d models.GroomingDetails
		err := c.ShouldBindBodyWith(&d, binding.JSON)
		return d, err
	}
}

// Create handles POST /v1/<kind>-bookings
func (h *BookingHandler) Create(kind models.BookingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bookingRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			badRequest(c, err)
			return
		}
		details, err := decodeDetails(c, kind)
		if err != nil {
			badRequest(c, err)
			return
		}

		b, err := h.bookings.Create(c.Request.Context(), callerFrom(c), service.BookingInput{
			PetName:         req.PetName,
			Phone:           req.Phone,
			PetOwnerName:    req.PetOwnerName,
			SelectedOwnerID: req.selectedOwner(),
			Details:         details,
		})
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

// List handles GET /v1/<kind>-bookings
func (h *BookingHandler) List(kind models.BookingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.bookings.List(c.Request.Context(), callerFrom(c), kind)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// Get handles GET /v1/<kind>-bookings/:id
func (h *BookingHandler) Get(kind models.BookingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		b, err := h.bookings.Get(c.Request.Context(), callerFrom(c), kind, id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

type bookingEmailRequest struct {
	BookingID   uuid.UUID `json:"booking_id" binding:"required"`
	BookingType string    `json:"booking_type" binding:"required"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
}

// SendEmail handles POST /v1/email/send-booking
func (h *BookingHandler) SendEmail(c *gin.Context) {
	var req bookingEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	to, err := h.bookings.SendBookingEmail(c.Request.Context(), callerFrom(c), req.BookingType, req.BookingID, req.Subject, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": "Email is being sent to " + to})
}
