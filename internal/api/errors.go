package api

import (
	"errors"                             // Error inspection
	"lottery_system/internal/domain"     // Domain errors
	"lottery_system/internal/middleware" // Context keys
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// errorStatus maps an engine error to an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	var se *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyDecided):
		return http.StatusConflict, "already_decided"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, domain.ErrNoActiveRound):
		return http.StatusConflict, "no_active_round"
	case errors.Is(err, domain.ErrConflictingActiveRound):
		return http.StatusConflict, "conflicting_active_round"
	case errors.Is(err, domain.ErrNoParticipants):
		return http.StatusUnprocessableEntity, "no_participants"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidImageRef):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &se):
		return http.StatusServiceUnavailable, "storage_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes err as JSON; infrastructure failures are logged and
// their detail hidden from the caller.
func respondError(c *gin.Context, op string, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"operation":  op,
			"request_id": c.GetString(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Error("Request failed")
		msg = "Service temporarily unavailable"
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}
