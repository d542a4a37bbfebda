package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/store"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inventory.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err as {"error": reason}. Server-side failures are logged and
// their details are not exposed.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Bool("inconsistent", errors.Is(err, apperr.ErrInconsistency)),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}

	reason := apperr.Reason(err)
	if errors.Is(err, store.ErrNotFound) && !errors.Is(err, apperr.ErrNotFound) {
		reason = "Not found"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": reason})
}
