package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/cache"
	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/mpesa"
	"github.com/akylbek/safari-buddy/internal/repository"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const (
	msgInitiated        = "Payment initiated successfully. Please check your phone for M-PESA prompt."
	msgAlreadyInitiated = "Payment already initiated for this Idempotency-Key."
	msgInitiationFailed = "Payment initiation failed"
	msgTokenFailure     = "Failed to get access token"

	ackSuccess         = "Success"
	ackNotFound        = "Payment record not found"
	ackInvalidPayload  = "Invalid callback payload"
	ackProcessingError = "Error processing callback"
)

var minChargeable = decimal.NewFromInt(1)

type PaymentServiceConfig struct {
	CallbackURL    string
	IdempotencyTTL time.Duration
}

type PaymentService struct {
	payments  interfaces.PaymentRepository
	bookings  interfaces.BookingRepository
	gateway   interfaces.PaymentGateway
	publisher interfaces.EventPublisher
	store     interfaces.IdempotencyStore
	cfg       PaymentServiceConfig
}

func NewPaymentService(
	payments interfaces.PaymentRepository,
	bookings interfaces.BookingRepository,
	gateway interfaces.PaymentGateway,
	publisher interfaces.EventPublisher,
	store interfaces.IdempotencyStore,
	cfg PaymentServiceConfig,
) *PaymentService {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		gateway:   gateway,
		publisher: publisher,
		store:     store,
		cfg:       cfg,
	}
}

// Initiate records a pending payment attempt for the caller's booking and
// sends the STK push. A provider rejection is not an error: the attempt is
// marked failed and the response carries success=false.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req models.InitiatePaymentRequest, idempotencyKey string) (*models.InitiatePaymentResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookingStatus == models.BookingCancelled {
		return nil, ErrBookingNotPayable
	}
	if req.Amount.LessThan(minChargeable) {
		return nil, ErrInvalidAmount
	}
	if _, err := mpesa.NormalizePhone(req.PhoneNumber); err != nil {
		return nil, err
	}

	var storedKey *string
	if idempotencyKey != "" {
		k := cache.InitiateKey(userID, idempotencyKey)
		storedKey = &k

		existing, err := s.payments.GetByIdempotencyKey(ctx, k)
		if err == nil {
			return s.replay(ctx, existing, req)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	payment := &models.Payment{
		BookingID:      booking.ID,
		Amount:         req.Amount,
		Method:         models.PaymentMethodMpesa,
		Status:         models.PaymentPending,
		PhoneNumber:    req.PhoneNumber,
		IdempotencyKey: storedKey,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && storedKey != nil {
			// Lost a race with a concurrent request carrying the same key.
			if existing, lookupErr := s.payments.GetByIdempotencyKey(ctx, *storedKey); lookupErr == nil {
				return s.replay(ctx, existing, req)
			}
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	logger := telemetry.Logger.With(
		zap.Int64("payment_id", payment.ID),
		zap.Int64("booking_id", booking.ID),
	)
	logger.Info("Initiating M-PESA payment", zap.String("amount", payment.Amount.String()))

	resp, err := s.gateway.InitiateSTKPush(ctx, mpesa.STKPushRequest{
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount,
		AccountReference: fmt.Sprintf("BOOKING-%d", booking.ID),
		TransactionDesc:  fmt.Sprintf("Payment for Safari Buddy booking #%d", booking.ID),
		CallbackURL:      s.cfg.CallbackURL,
	})
	if err != nil {
		return s.failInitiation(ctx, logger, payment, err)
	}

	if err := s.payments.AttachProviderIDs(ctx, payment.ID, resp.MerchantRequestID, resp.CheckoutRequestID); err != nil {
		logger.Error("Failed to store provider identifiers",
			zap.String("checkout_request_id", resp.CheckoutRequestID),
			zap.Error(err),
		)
		telemetry.PaymentsInitiated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("attach provider ids: %w", err)
	}
	payment.MerchantRequestID = &resp.MerchantRequestID
	payment.CheckoutRequestID = &resp.CheckoutRequestID

	logger.Info("STK push accepted", zap.String("checkout_request_id", resp.CheckoutRequestID))
	telemetry.PaymentsInitiated.WithLabelValues("accepted").Inc()
	s.publish(ctx, events.NewPaymentEvent(events.PaymentInitiated, payment))

	out := &models.InitiatePaymentResponse{
		Success:             true,
		Message:             msgInitiated,
		PaymentID:           payment.ID,
		MerchantRequestID:   resp.MerchantRequestID,
		CheckoutRequestID:   resp.CheckoutRequestID,
		ResponseCode:        resp.ResponseCode,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
	}
	if storedKey != nil {
		s.remember(ctx, *storedKey, models.CachedInitiate{BookingID: booking.ID, Amount: req.Amount, Response: *out})
	}
	return out, nil
}

func (s *PaymentService) failInitiation(ctx context.Context, logger *zap.Logger, payment *models.Payment, cause error) (*models.InitiatePaymentResponse, error) {
	message := cause.Error()
	if errors.Is(cause, mpesa.ErrAuthFailure) {
		message = msgTokenFailure
	}

	detail := map[string]any{"success": false, "message": message}
	var perr *mpesa.ProviderError
	if errors.As(cause, &perr) {
		detail["status_code"] = perr.StatusCode
		if perr.ErrorMessage != "" {
			message = perr.ErrorMessage
			detail["message"] = message
		}
	}
	details, _ := json.Marshal(detail)

	logger.Warn("STK push failed", zap.Error(cause))
	telemetry.PaymentsInitiated.WithLabelValues("failed").Inc()

	if err := s.payments.MarkFailed(ctx, payment.ID, string(details)); err != nil {
		logger.Error("Failed to mark payment as failed", zap.Error(err))
		return nil, fmt.Errorf("mark payment failed: %w", err)
	}
	payment.Status = models.PaymentFailed
	s.publish(ctx, events.NewPaymentEvent(events.PaymentFailed, payment))

	if message == "" {
		message = msgInitiationFailed
	}
	return &models.InitiatePaymentResponse{
		Success:   false,
		Message:   message,
		PaymentID: payment.ID,
	}, nil
}

// replay answers a repeated Idempotency-Key with the attempt it created. A
// key reused for another booking or amount is rejected so the caller never
// mistakes an old push for a new one.
func (s *PaymentService) replay(ctx context.Context, p *models.Payment, req models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	if p.BookingID != req.BookingID || !p.Amount.Equal(req.Amount) {
		telemetry.Logger.Warn("Idempotency-Key reused for a different payment",
			zap.Int64("payment_id", p.ID),
			zap.Int64("booking_id", p.BookingID),
			zap.Int64("requested_booking_id", req.BookingID),
		)
		return nil, ErrIdempotencyKeyReused
	}

	if p.IdempotencyKey != nil {
		if raw, ok, err := s.store.Get(ctx, *p.IdempotencyKey); err == nil && ok {
			var cached models.CachedInitiate
			if json.Unmarshal(raw, &cached) == nil {
				return &cached.Response, nil
			}
		}
	}

	out := &models.InitiatePaymentResponse{
		Success:   p.Status != models.PaymentFailed,
		Message:   msgAlreadyInitiated,
		PaymentID: p.ID,
	}
	if p.CheckoutRequestID != nil {
		out.CheckoutRequestID = *p.CheckoutRequestID
	}
	if p.MerchantRequestID != nil {
		out.MerchantRequestID = *p.MerchantRequestID
	}
	return out, nil
}

// HandleCallback applies a provider callback and returns the acknowledgement
// body. It never returns an error and never panics.
func (s *PaymentService) HandleCallback(ctx context.Context, body []byte) (ack models.CallbackAck) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Logger.Error("Panic while processing M-PESA callback", zap.Any("panic", r))
			telemetry.CallbacksReceived.WithLabelValues("error").Inc()
			ack = models.CallbackAck{ResultCode: 1, ResultDesc: ackProcessingError}
		}
	}()

	result, err := mpesa.ParseCallback(body)
	if err != nil {
		telemetry.Logger.Warn("Rejected M-PESA callback", zap.Error(err))
		telemetry.CallbacksReceived.WithLabelValues("malformed").Inc()
		return models.CallbackAck{ResultCode: 1, ResultDesc: ackInvalidPayload}
	}

	logger := telemetry.Logger.With(
		zap.String("checkout_request_id", result.CheckoutRequestID),
		zap.Int("result_code", result.ResultCode),
	)

	doneKey := cache.CallbackKey(result.CheckoutRequestID)
	if _, seen, err := s.store.Get(ctx, doneKey); err != nil {
		logger.Warn("Idempotency store unavailable", zap.Error(err))
	} else if seen {
		logger.Info("Duplicate M-PESA callback ignored")
		telemetry.CallbacksReceived.WithLabelValues("duplicate").Inc()
		return models.CallbackAck{ResultCode: 0, ResultDesc: ackSuccess}
	}

	details, _ := json.Marshal(result)
	outcome := models.PaymentOutcome{Status: models.PaymentFailed, Details: string(details)}
	if result.Success {
		outcome.Status = models.PaymentCompleted
		outcome.ReceiptNumber = result.ReceiptNumber
		outcome.AmountPaid = result.Amount
	}

	payment, transitioned, err := s.payments.ApplyOutcome(ctx, result.CheckoutRequestID, outcome)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn("Callback for unknown checkout request")
		telemetry.CallbacksReceived.WithLabelValues("unmatched").Inc()
		return models.CallbackAck{ResultCode: 1, ResultDesc: ackNotFound}
	}
	if err != nil {
		logger.Error("Failed to apply M-PESA callback", zap.Error(err))
		telemetry.CallbacksReceived.WithLabelValues("error").Inc()
		return models.CallbackAck{ResultCode: 1, ResultDesc: ackProcessingError}
	}

	if transitioned {
		logger.Info("Payment updated from callback",
			zap.Int64("payment_id", payment.ID),
			zap.String("status", string(payment.Status)),
		)
		telemetry.CallbacksReceived.WithLabelValues(string(payment.Status)).Inc()
		s.publishOutcome(ctx, payment)
	} else {
		logger.Info("Payment already final, callback ignored", zap.Int64("payment_id", payment.ID))
		telemetry.CallbacksReceived.WithLabelValues("duplicate").Inc()
	}

	if err := s.store.Set(ctx, doneKey, []byte(payment.Status), s.cfg.IdempotencyTTL); err != nil {
		logger.Warn("Failed to record processed callback", zap.Error(err))
	}
	return models.CallbackAck{ResultCode: 0, ResultDesc: ackSuccess}
}

// Query asks the provider for the state of the caller's payment and applies
// a final answer the same way a callback would.
func (s *PaymentService) Query(ctx context.Context, userID int64, checkoutRequestID string) (*models.QueryPaymentResponse, error) {
	payment, err := s.payments.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBooking(ctx, userID, payment.BookingID); err != nil {
		return nil, err
	}

	resp, err := s.gateway.QuerySTKPush(ctx, checkoutRequestID)
	if err != nil {
		telemetry.Logger.Warn("STK push query failed",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.Error(err),
		)
		return &models.QueryPaymentResponse{
			Success:           false,
			CheckoutRequestID: checkoutRequestID,
			PaymentStatus:     payment.Status,
		}, nil
	}

	out := &models.QueryPaymentResponse{
		Success:           true,
		ResultCode:        resp.ResultCode.String(),
		ResultDesc:        resp.ResultDesc,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		PaymentStatus:     payment.Status,
	}

	if out.ResultCode == "" {
		return out, nil
	}

	details, _ := json.Marshal(resp)
	outcome := models.PaymentOutcome{Status: models.PaymentFailed, Details: string(details)}
	if out.ResultCode == "0" {
		outcome.Status = models.PaymentCompleted
	}

	updated, transitioned, err := s.payments.ApplyOutcome(ctx, checkoutRequestID, outcome)
	if err != nil {
		return nil, fmt.Errorf("apply query result: %w", err)
	}
	if transitioned {
		s.publishOutcome(ctx, updated)
	}
	out.PaymentStatus = updated.Status
	return out, nil
}

func (s *PaymentService) Get(ctx context.Context, userID, paymentID int64) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBooking(ctx, userID, payment.BookingID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) ListForBooking(ctx context.Context, userID, bookingID int64) (*models.PaymentListResponse, error) {
	if _, err := s.ownedBooking(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &models.PaymentListResponse{
		Payments: payments,
		Total:    len(payments),
		Page:     1,
		PageSize: len(payments),
	}, nil
}

func (s *PaymentService) ownedBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *PaymentService) publishOutcome(ctx context.Context, p *models.Payment) {
	switch p.Status {
	case models.PaymentCompleted:
		s.publish(ctx, events.NewPaymentEvent(events.PaymentCompleted, p))
		s.publish(ctx, events.NewBookingConfirmedEvent(p))
	case models.PaymentFailed:
		s.publish(ctx, events.NewPaymentEvent(events.PaymentFailed, p))
	}
}

func (s *PaymentService) publish(ctx context.Context, e events.Event) {
	publishQuietly(ctx, s.publisher, e)
}

func (s *PaymentService) remember(ctx context.Context, key string, entry models.CachedInitiate) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, raw, s.cfg.IdempotencyTTL); err != nil {
		telemetry.Logger.Warn("Failed to cache initiate response", zap.Error(err))
	}
}
