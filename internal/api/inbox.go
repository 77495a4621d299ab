package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler serves the caller's own inbox.
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": unread, "notifications": list})
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead handles POST /v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *zap.Logger
}

func NewFeedbackHandler(feedback *service.FeedbackService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

type feedbackRequest struct {
	Type    models.FeedbackType `json:"type" binding:"omitempty,oneof=feedback complaint"`
	Message string              `json:"message" binding:"required,notblank"`
}

type replyRequest struct {
	Reply string `json:"reply" binding:"required,notblank"`
}

// Create handles POST /v1/feedbacks
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.feedback.Create(c.Request.Context(), callerFrom(c), req.Type, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// List handles GET /v1/feedbacks
func (h *FeedbackHandler) List(c *gin.Context) {
	list, err := h.feedback.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Reply handles POST /v1/feedbacks/:id/reply
func (h *FeedbackHandler) Reply(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.feedback.Reply(c.Request.Context(), callerFrom(c), id, req.Reply)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reply sent successfully!", "reply": f.Reply})
}
