package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-api/internal/service"
)

type fieldErrorer interface {
	FieldErrors() service.FieldErrors
}

// writeError maps the service error taxonomy onto responses. Anything
// outside it is logged and reported as a 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		authErr  *service.AuthenticationError
		fieldErr fieldErrorer
	)

	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{authErr.Message}})
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, fieldErr.FieldErrors())
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
