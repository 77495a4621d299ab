package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// ChatHandler is the REST side of chat. Posting here and posting over
// the WebSocket go through the same ChatService.PostMessage, so both
// paths persist before broadcasting.
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type openRoomRequest struct {
	PetID uuid.UUID `json:"pet" binding:"required"`
}

type postMessageRequest struct {
	Message string `json:"message" binding:"required,notblank"`
}

// OpenRoom handles POST /v1/chatrooms
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	var req openRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	room, err := h.chat.OpenRoom(c.Request.Context(), middleware.GetUserID(c), req.PetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /v1/chatrooms
func (h *ChatHandler) ListRooms(c *gin.Context) {
	rooms, err := h.chat.ListRooms(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /v1/chatrooms/:id
func (h *ChatHandler) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.chat.GetRoom(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListMessages handles GET /v1/chatrooms/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.chat.ListMessages(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostMessage handles POST /v1/chatrooms/:id/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.chat.PostMessage(c.Request.Context(), id, middleware.GetUserID(c), req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead handles POST /v1/chatrooms/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.chat.MarkRoomRead(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
