package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/auth"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/realtime"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// WSHandler upgrades GET /ws/chat/:room_id to a live room connection.
//
// Everything that can be refused is checked before the upgrade: token,
// room id, participation. Once upgraded the client only ever gets
// frames, never an HTTP status.
type WSHandler struct {
	chat      *service.ChatService
	hub       *realtime.Hub
	jwtSecret string
	upgrader  websocket.Upgrader
	logger    *zap.Logger

	// baseCtx is cancelled on shutdown and ends every live connection.
	baseCtx context.Context
}

func NewWSHandler(baseCtx context.Context, chat *service.ChatService, hub *realtime.Hub, jwtSecret string, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		chat:      chat,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger,
		baseCtx:   baseCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Chat handles GET /ws/chat/:room_id
func (h *WSHandler) Chat(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	if _, err := h.chat.GetRoom(c.Request.Context(), claims.UserID, roomID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, roomID, claims.UserID, h.chat.Post, apperr.PublicMessage, h.logger)
	client.Serve(h.baseCtx)
}
