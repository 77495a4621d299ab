package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// AdminHandler serves the owner-approval queue. Every route except
// ApprovedOwners sits behind RequireRole(admin).
type AdminHandler struct {
	identity *service.IdentityService
	logger   *zap.Logger
}

func NewAdminHandler(identity *service.IdentityService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{identity: identity, logger: logger}
}

// PendingOwners handles GET /v1/admin/pending-owners
func (h *AdminHandler) PendingOwners(c *gin.Context) {
	owners, err := h.identity.PendingOwners(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, owners)
}

// Owners handles GET /v1/admin/owners
func (h *AdminHandler) Owners(c *gin.Context) {
	owners, err := h.identity.Owners(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, owners)
}

// ApprovedOwners handles GET /v1/owners, the public list the booking
// forms pick an owner from.
func (h *AdminHandler) ApprovedOwners(c *gin.Context) {
	owners, err := h.identity.ApprovedOwners(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	type ownerOption struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	out := make([]ownerOption, 0, len(owners))
	for _, o := range owners {
		out = append(out, ownerOption{ID: o.ID.String(), Username: o.Username, Name: o.Name, Location: o.Location})
	}
	c.JSON(http.StatusOK, out)
}

// ApproveOwner handles PATCH /v1/admin/owners/:id/approve
func (h *AdminHandler) ApproveOwner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	owner, err := h.identity.ApproveOwner(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": owner.Username + " has been approved."})
}

// DeleteOwner handles DELETE /v1/admin/owners/:id
func (h *AdminHandler) DeleteOwner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.identity.DeleteOwner(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Owner deleted successfully."})
}
