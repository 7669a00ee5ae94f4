package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/leads/internal/reconcile"
	"basegraph.app/leads/internal/service"
)

const (
	msgLeadNotFound      = "Lead not found"
	msgLeadIDRequired    = "Lead ID is required"
	msgCreateRequired    = "company_name and project_name are required"
	msgNoValidFields     = "No valid fields to update"
	msgMethodNotAllowed  = "Method not allowed"
	msgStreamUnsupported = "streaming not supported"
)

// respondError maps service and reconcile errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var (
		validationErr *service.ValidationError
		fieldErr      *reconcile.FieldError
	)
	switch {
	case errors.Is(err, reconcile.ErrNoValidFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoValidFields})
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldErr.Error()})
	case errors.As(err, &validationErr):
		if validationErr.Field == "company_name" || validationErr.Field == "project_name" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgCreateRequired})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, service.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgLeadNotFound})
	case errors.Is(err, service.ErrLeadConflict):
		slog.WarnContext(ctx, "lead update conflict", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// MethodNotAllowed is installed as the engine's NoMethod handler.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": msgMethodNotAllowed})
}
