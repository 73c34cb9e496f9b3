package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/middleware"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const maxCallbackBytes = 64 << 10

type PaymentService interface {
	Initiate(ctx context.Context, userID int64, req models.InitiatePaymentRequest, idempotencyKey string) (*models.InitiatePaymentResponse, error)
	HandleCallback(ctx context.Context, body []byte) models.CallbackAck
	Query(ctx context.Context, userID int64, checkoutRequestID string) (*models.QueryPaymentResponse, error)
	Get(ctx context.Context, userID, paymentID int64) (*models.Payment, error)
	ListForBooking(ctx context.Context, userID, bookingID int64) (*models.PaymentListResponse, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID := middleware.UserID(c)
	telemetry.Logger.Info("Payment initiation requested",
		zap.Int64("booking_id", req.BookingID),
		zap.Int64("user_id", userID),
		zap.String("trace_id", telemetry.TraceID(c)),
	)

	resp, err := h.svc.Initiate(c.Request.Context(), userID, req, c.GetString(middleware.ContextIdempotencyKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Callback is called by Safaricom. It always answers 200 so the provider's
// retry policy is driven by ResultCode alone.
func (h *PaymentHandler) Callback(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Logger.Error("Panic in callback handler", zap.Any("panic", r))
			c.JSON(http.StatusOK, models.CallbackAck{ResultCode: 1, ResultDesc: "Error processing callback"})
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			telemetry.Logger.Warn("Callback body too large", zap.Int64("limit", tooLarge.Limit))
		} else {
			telemetry.Logger.Warn("Failed to read callback body", zap.Error(err))
		}
		c.JSON(http.StatusOK, models.CallbackAck{ResultCode: 1, ResultDesc: "Invalid callback payload"})
		return
	}

	c.JSON(http.StatusOK, h.svc.HandleCallback(c.Request.Context(), body))
}

func (h *PaymentHandler) QueryPayment(c *gin.Context) {
	var req models.QueryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Query(c.Request.Context(), middleware.UserID(c), req.CheckoutRequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) ListBookingPayments(c *gin.Context) {
	bookingID, ok := idParam(c, "booking_id")
	if !ok {
		return
	}

	resp, err := h.svc.ListForBooking(c.Request.Context(), middleware.UserID(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
