package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

type PetHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewPetHandler(catalog *service.CatalogService, logger *zap.Logger) *PetHandler {
	return &PetHandler{catalog: catalog, logger: logger}
}

// petRequest is shared by create, PUT and PATCH. Absent fields stay nil
// so PATCH can tell "not sent" from "sent empty".
type petRequest struct {
	Name        *string `json:"name"`
	Breed       *string `json:"breed"`
	Gender      *string `json:"gender"`
	Size        *string `json:"size"`
	Age         *string `json:"age"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Contact     *string `json:"contact"`
	Image       *string `json:"image"`
}

func (r petRequest) input() service.PetInput {
	return service.PetInput{
		Name:        r.Name,
		Breed:       r.Breed,
		Gender:      r.Gender,
		Size:        r.Size,
		Age:         r.Age,
		Description: r.Description,
		Location:    r.Location,
		Contact:     r.Contact,
		ImageURL:    r.Image,
	}
}

// Create handles POST /v1/pets
func (h *PetHandler) Create(c *gin.Context) {
	var req petRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pet, err := h.catalog.CreatePet(c.Request.Context(), callerFrom(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pet)
}

// List handles GET /v1/pets
func (h *PetHandler) List(c *gin.Context) {
	pets, err := h.catalog.ListPets(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}

// Get handles GET /v1/pets/:id
func (h *PetHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pet, err := h.catalog.GetPet(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

// Replace handles PUT /v1/pets/:id
func (h *PetHandler) Replace(c *gin.Context) { h.update(c, true) }

// Patch handles PATCH /v1/pets/:id
func (h *PetHandler) Patch(c *gin.Context) { h.update(c, false) }

func (h *PetHandler) update(c *gin.Context, replace bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req petRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pet, err := h.catalog.UpdatePet(c.Request.Context(), callerFrom(c), id, req.input(), replace)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

// Delete handles DELETE /v1/pets/:id
func (h *PetHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeletePet(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
