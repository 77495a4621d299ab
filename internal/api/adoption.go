package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

type AdoptionHandler struct {
	adoption *service.AdoptionService
	logger   *zap.Logger
}

func NewAdoptionHandler(adoption *service.AdoptionService, logger *zap.Logger) *AdoptionHandler {
	return &AdoptionHandler{adoption: adoption, logger: logger}
}

type adoptionRequest struct {
	PetID   uuid.UUID `json:"pet" binding:"required"`
	Message string    `json:"message"`
}

type respondRequest struct {
	Action string `json:"action" binding:"required"`
}

// Create handles POST /v1/adoption-requests
func (h *AdoptionHandler) Create(c *gin.Context) {
	var req adoptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ar, err := h.adoption.Create(c.Request.Context(), callerFrom(c), req.PetID, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ar)
}

// List handles GET /v1/adoption-requests
func (h *AdoptionHandler) List(c *gin.Context) {
	list, err := h.adoption.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Respond handles POST /v1/adoption-requests/:id/respond
func (h *AdoptionHandler) Respond(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ar, err := h.adoption.Respond(c.Request.Context(), callerFrom(c), id, req.Action)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Request " + string(ar.Status) + " successfully.",
		"request": ar,
	})
}
