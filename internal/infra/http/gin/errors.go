package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/domain/shared/fault"
)

// statusFor maps the fault taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fault.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, fault.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, fault.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, fault.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	if status == http.StatusBadGateway {
		if logger != nil {
			logger.WarnContext(c.Request.Context(), "upstream failure", "route", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"error": "payment or storage provider unavailable, try again"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
