package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/safari-buddy/internal/middleware"
	"github.com/akylbek/safari-buddy/internal/models"
)

type BookingService interface {
	Create(ctx context.Context, userID int64, req models.CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Booking, error)
	Cancel(ctx context.Context, userID, bookingID int64) (*models.Booking, error)
}

type BookingHandler struct {
	svc BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateBookingResponse{
		Message:          "Booking created successfully",
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TotalAmount:      booking.TotalAmount,
	})
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.svc.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Cancel(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}
