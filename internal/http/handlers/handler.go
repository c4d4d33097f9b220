package handlers

import (
	"errors"
	"net/http"

	"action_items/internal/domain"
	"action_items/internal/http/middleware"
	"action_items/internal/logger"
	"action_items/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Tasks *service.TaskService
	Sync  *service.SyncService
	Auth  *service.AuthService
	Audit *service.AuditService
}

func NewHandler(tasks *service.TaskService, sync *service.SyncService, auth *service.AuthService, audit *service.AuditService) *Handler {
	return &Handler{Tasks: tasks, Sync: sync, Auth: auth, Audit: audit}
}

// getUserID returns the caller set by the JWT middleware, answering 401 when absent.
func getUserID(c *gin.Context) (string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not authorized"})
	}
	return id, ok
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// respondError maps service and validation errors to status codes. Anything
// unrecognised is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Error(), "errors": verr.Fields})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrTaskNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}
