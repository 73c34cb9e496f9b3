package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/mpesa"
	"github.com/akylbek/safari-buddy/internal/service"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAccountSuspended):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrTourNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrReviewExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrIdempotencyKeyReused):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTourInactive),
		errors.Is(err, service.ErrInvalidTour),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingNotPayable),
		errors.Is(err, service.ErrInvalidPartySize),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBookingNotReviewable),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, mpesa.ErrInvalidPhone),
		errors.Is(err, mpesa.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		telemetry.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("trace_id", telemetry.TraceID(c)),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	telemetry.Logger.Warn("Invalid request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
