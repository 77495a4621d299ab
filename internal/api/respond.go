package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pawsnest/backend/internal/apperr"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// respondError writes a service error as {"error": msg} with the status
// its kind maps to. Internal errors are logged with their cause; the
// client only sees the safe message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// badRequest answers a body that failed to bind.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathID parses the named path parameter as a UUID, answering 400 when
// it isn't one.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func callerFrom(c *gin.Context) service.Caller {
	return service.Caller{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetRole(c),
	}
}
