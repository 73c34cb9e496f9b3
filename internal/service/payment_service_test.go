package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/safari-buddy/internal/cache"
	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/mpesa"
)

const (
	ownerID     int64 = 100
	strangerID  int64 = 200
	checkoutID        = "ws_CO_191220191020363925"
	callbackURL       = "https://safari.example/api/payments/callback"
)

type paymentHarness struct {
	db      *memDB
	gw      *fakeGateway
	pub     *recordingPublisher
	svc     *PaymentService
	booking *models.Booking
}

func newPaymentHarness(t *testing.T) *paymentHarness {
	t.Helper()
	ctx := context.Background()
	db := newMemDB()

	maxPeople := 10
	tour := &models.Tour{
		ProviderID:      1,
		Title:           "Maasai Mara 3-day safari",
		Category:        models.CategoryWildlife,
		PricePerPerson:  decimal.RequireFromString("1500.00"),
		MaxParticipants: &maxPeople,
		IsActive:        true,
	}
	require.NoError(t, memTours{db}.Create(ctx, tour))

	booking := &models.Booking{
		UserID:           ownerID,
		TourID:           tour.ID,
		NumberOfPeople:   2,
		BookingStatus:    models.BookingPending,
		PaymentStatus:    models.BookingPaymentPending,
		BookingReference: "SB-1A2B3C4D",
	}
	require.NoError(t, memBookings{db}.CreateWithCapacity(ctx, booking))

	h := &paymentHarness{db: db, gw: newFakeGateway(), pub: &recordingPublisher{}, booking: booking}
	h.svc = h.newService(cache.NewMemoryStore())
	return h
}

func (h *paymentHarness) newService(store *cache.MemoryStore) *PaymentService {
	return NewPaymentService(memPayments{h.db}, memBookings{h.db}, h.gw, h.pub, store,
		PaymentServiceConfig{CallbackURL: callbackURL})
}

func (h *paymentHarness) initiateRequest() models.InitiatePaymentRequest {
	return models.InitiatePaymentRequest{
		BookingID:   h.booking.ID,
		Amount:      decimal.RequireFromString("3000.00"),
		PhoneNumber: "0712345678",
	}
}

func (h *paymentHarness) initiate(t *testing.T) *models.InitiatePaymentResponse {
	t.Helper()
	resp, err := h.svc.Initiate(context.Background(), ownerID, h.initiateRequest(), "")
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp
}

func (h *paymentHarness) payment(t *testing.T, id int64) *models.Payment {
	t.Helper()
	p, err := memPayments{h.db}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (h *paymentHarness) currentBooking(t *testing.T) *models.Booking {
	t.Helper()
	b, err := memBookings{h.db}.GetByID(context.Background(), h.booking.ID)
	require.NoError(t, err)
	return b
}

func successCallback(checkout string) []byte {
	return chargedCallback(checkout, "3000.00")
}

func chargedCallback(checkout, amount string) []byte {
	return []byte(fmt.Sprintf(`{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":%q,"ResultCode":0,
		"ResultDesc":"The service request is processed successfully.",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":%s},
			{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
			{"Name":"TransactionDate","Value":20191219102115},
			{"Name":"PhoneNumber","Value":254712345678}]}}}}`, checkout, amount))
}

func failedCallback(checkout string) []byte {
	return []byte(fmt.Sprintf(`{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":%q,"ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`, checkout))
}

func TestInitiate(t *testing.T) {
	h := newPaymentHarness(t)

	resp := h.initiate(t)

	assert.Equal(t, checkoutID, resp.CheckoutRequestID)
	assert.Equal(t, "29115-34620561-1", resp.MerchantRequestID)
	assert.Equal(t, "0", resp.ResponseCode)
	assert.Contains(t, resp.Message, "check your phone")

	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, models.PaymentMethodMpesa, p.Method)
	require.NotNil(t, p.CheckoutRequestID)
	assert.Equal(t, checkoutID, *p.CheckoutRequestID)
	assert.Equal(t, "0712345678", p.PhoneNumber)

	push := h.gw.lastPush
	assert.Equal(t, fmt.Sprintf("BOOKING-%d", h.booking.ID), push.AccountReference)
	assert.Equal(t, fmt.Sprintf("Payment for Safari Buddy booking #%d", h.booking.ID), push.TransactionDesc)
	assert.Equal(t, callbackURL, push.CallbackURL)
	assert.True(t, decimal.RequireFromString("3000").Equal(push.Amount))

	assert.Len(t, h.pub.ofType(events.PaymentInitiated), 1)
}

func TestInitiateRejectsBeforeCallingProvider(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		mutate  func(h *paymentHarness, req *models.InitiatePaymentRequest)
		wantErr error
	}{
		{
			name:    "non owner",
			userID:  strangerID,
			wantErr: ErrForbidden,
		},
		{
			name:    "missing booking",
			userID:  ownerID,
			mutate:  func(_ *paymentHarness, req *models.InitiatePaymentRequest) { req.BookingID = 9999 },
			wantErr: ErrBookingNotFound,
		},
		{
			name:   "cancelled booking",
			userID: ownerID,
			mutate: func(h *paymentHarness, _ *models.InitiatePaymentRequest) {
				_, err := memBookings{h.db}.Cancel(context.Background(), h.booking.ID)
				if err != nil {
					panic(err)
				}
			},
			wantErr: ErrBookingNotPayable,
		},
		{
			name:   "sub unit amount",
			userID: ownerID,
			mutate: func(_ *paymentHarness, req *models.InitiatePaymentRequest) {
				req.Amount = decimal.RequireFromString("0.50")
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "foreign phone",
			userID:  ownerID,
			mutate:  func(_ *paymentHarness, req *models.InitiatePaymentRequest) { req.PhoneNumber = "+15551234567" },
			wantErr: mpesa.ErrInvalidPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPaymentHarness(t)
			req := h.initiateRequest()
			if tt.mutate != nil {
				tt.mutate(h, &req)
			}

			_, err := h.svc.Initiate(context.Background(), tt.userID, req, "")

			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, h.gw.pushCalls.Load())
			assert.Empty(t, h.db.payments)
		})
	}
}

func TestInitiateProviderRejectionMarksAttemptFailed(t *testing.T) {
	h := newPaymentHarness(t)
	h.gw.pushErr = &mpesa.ProviderError{
		Operation:    "stkpush",
		StatusCode:   400,
		ErrorCode:    "400.002.02",
		ErrorMessage: "Bad Request - Invalid PhoneNumber",
	}

	resp, err := h.svc.Initiate(context.Background(), ownerID, h.initiateRequest(), "")
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "Bad Request - Invalid PhoneNumber", resp.Message)

	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentFailed, p.Status)
	require.NotNil(t, p.Details)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(*p.Details), &details))
	assert.Equal(t, false, details["success"])
	assert.Equal(t, float64(400), details["status_code"])

	assert.Len(t, h.pub.ofType(events.PaymentFailed), 1)
	assert.Equal(t, models.BookingPending, h.currentBooking(t).BookingStatus)
}

func TestInitiateAuthFailureMessage(t *testing.T) {
	h := newPaymentHarness(t)
	h.gw.pushErr = fmt.Errorf("%w: status 401", mpesa.ErrAuthFailure)

	resp, err := h.svc.Initiate(context.Background(), ownerID, h.initiateRequest(), "")
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to get access token", resp.Message)
	assert.Equal(t, models.PaymentFailed, h.payment(t, resp.PaymentID).Status)
}

func TestInitiatePersistenceFailureAfterPush(t *testing.T) {
	h := newPaymentHarness(t)
	h.db.failNext = errors.New("connection reset")

	_, err := h.svc.Initiate(context.Background(), ownerID, h.initiateRequest(), "")
	require.Error(t, err)
	assert.Empty(t, h.pub.ofType(events.PaymentInitiated))
}

func TestInitiateRetriesCreateNewAttempts(t *testing.T) {
	h := newPaymentHarness(t)

	first := h.initiate(t)
	h.gw.pushResp.CheckoutRequestID = "ws_CO_second"
	second := h.initiate(t)

	assert.NotEqual(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, int32(2), h.gw.pushCalls.Load())

	list, err := h.svc.ListForBooking(context.Background(), ownerID, h.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 2, list.PageSize)
}

func TestInitiateIdempotencyKeyReplaysAttempt(t *testing.T) {
	h := newPaymentHarness(t)
	ctx := context.Background()

	first, err := h.svc.Initiate(ctx, ownerID, h.initiateRequest(), "key-1")
	require.NoError(t, err)
	second, err := h.svc.Initiate(ctx, ownerID, h.initiateRequest(), "key-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), h.gw.pushCalls.Load())
	assert.Len(t, h.db.payments, 1)
}

func TestInitiateIdempotencyKeyFallsBackToDatabase(t *testing.T) {
	h := newPaymentHarness(t)
	ctx := context.Background()

	first, err := h.svc.Initiate(ctx, ownerID, h.initiateRequest(), "key-1")
	require.NoError(t, err)

	// A fresh store simulates an evicted or restarted cache.
	svc := h.newService(cache.NewMemoryStore())
	second, err := svc.Initiate(ctx, ownerID, h.initiateRequest(), "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, checkoutID, second.CheckoutRequestID)
	assert.True(t, second.Success)
	assert.Equal(t, int32(1), h.gw.pushCalls.Load())
}

func TestInitiateIdempotencyKeyRejectsOtherRequest(t *testing.T) {
	h := newPaymentHarness(t)
	ctx := context.Background()

	other := &models.Booking{
		UserID:           ownerID,
		TourID:           h.booking.TourID,
		NumberOfPeople:   1,
		BookingStatus:    models.BookingPending,
		PaymentStatus:    models.BookingPaymentPending,
		BookingReference: "SB-5E6F7A8B",
	}
	require.NoError(t, memBookings{h.db}.CreateWithCapacity(ctx, other))

	_, err := h.svc.Initiate(ctx, ownerID, h.initiateRequest(), "key-1")
	require.NoError(t, err)

	otherBooking := h.initiateRequest()
	otherBooking.BookingID = other.ID
	otherAmount := h.initiateRequest()
	otherAmount.Amount = decimal.RequireFromString("2999.00")

	for name, req := range map[string]models.InitiatePaymentRequest{
		"other booking": otherBooking,
		"other amount":  otherAmount,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Initiate(ctx, ownerID, req, "key-1")
			require.ErrorIs(t, err, ErrIdempotencyKeyReused)

			// Same answer once the cached entry is gone.
			_, err = h.newService(cache.NewMemoryStore()).Initiate(ctx, ownerID, req, "key-1")
			require.ErrorIs(t, err, ErrIdempotencyKeyReused)
		})
	}
	assert.Equal(t, int32(1), h.gw.pushCalls.Load())
	assert.Len(t, h.db.payments, 1)
}

func TestHandleCallbackSuccess(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)

	ack := h.svc.HandleCallback(context.Background(), successCallback(checkoutID))

	assert.Equal(t, models.CallbackAck{ResultCode: 0, ResultDesc: "Success"}, ack)

	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	require.NotNil(t, p.ReceiptNumber)
	assert.Equal(t, "NLJ7RT61SV", *p.ReceiptNumber)
	require.NotNil(t, p.Details)
	assert.Contains(t, *p.Details, "NLJ7RT61SV")

	b := h.currentBooking(t)
	assert.Equal(t, models.BookingConfirmed, b.BookingStatus)
	assert.Equal(t, models.BookingPaymentPending, b.PaymentStatus)

	assert.Len(t, h.pub.ofType(events.PaymentCompleted), 1)
	assert.Len(t, h.pub.ofType(events.BookingConfirmed), 1)
}

func TestHandleCallbackIsIdempotent(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)
	ctx := context.Background()

	first := h.svc.HandleCallback(ctx, successCallback(checkoutID))
	second := h.svc.HandleCallback(ctx, successCallback(checkoutID))
	// Without the cache fast path the row lock and terminal check still hold.
	third := h.newService(cache.NewMemoryStore()).HandleCallback(ctx, successCallback(checkoutID))

	for _, ack := range []models.CallbackAck{first, second, third} {
		assert.Equal(t, 0, ack.ResultCode)
	}
	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	assert.Equal(t, "NLJ7RT61SV", *p.ReceiptNumber)
	assert.Len(t, h.pub.ofType(events.PaymentCompleted), 1)
	assert.Len(t, h.pub.ofType(events.BookingConfirmed), 1)
}

func TestHandleCallbackFailure(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)

	ack := h.svc.HandleCallback(context.Background(), failedCallback(checkoutID))

	assert.Equal(t, 0, ack.ResultCode)
	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentFailed, p.Status)
	assert.Nil(t, p.ReceiptNumber)
	require.NotNil(t, p.Details)
	assert.Contains(t, *p.Details, "Request cancelled by user")
	assert.Equal(t, models.BookingPending, h.currentBooking(t).BookingStatus)
	assert.Len(t, h.pub.ofType(events.PaymentFailed), 1)
}

func TestHandleCallbackNeverResurrectsFailedPayment(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)
	ctx := context.Background()

	h.svc.HandleCallback(ctx, failedCallback(checkoutID))
	ack := h.newService(cache.NewMemoryStore()).HandleCallback(ctx, successCallback(checkoutID))

	assert.Equal(t, 0, ack.ResultCode)
	assert.Equal(t, models.PaymentFailed, h.payment(t, resp.PaymentID).Status)
	assert.Equal(t, models.BookingPending, h.currentBooking(t).BookingStatus)
	assert.Empty(t, h.pub.ofType(events.PaymentCompleted))
}

func TestHandleCallbackUnknownCheckout(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)

	ack := h.svc.HandleCallback(context.Background(), successCallback("ws_CO_unknown"))

	assert.Equal(t, models.CallbackAck{ResultCode: 1, ResultDesc: "Payment record not found"}, ack)
	assert.Equal(t, models.PaymentPending, h.payment(t, resp.PaymentID).Status)
	assert.Equal(t, models.BookingPending, h.currentBooking(t).BookingStatus)
}

func TestHandleCallbackMalformed(t *testing.T) {
	h := newPaymentHarness(t)
	h.initiate(t)

	for _, body := range []string{`{"stkCallback":{}}`, `not json`, ``} {
		var ack models.CallbackAck
		assert.NotPanics(t, func() {
			ack = h.svc.HandleCallback(context.Background(), []byte(body))
		})
		assert.Equal(t, 1, ack.ResultCode)
	}
}

func TestHandleCallbackPersistenceError(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)
	h.db.failNext = errors.New("connection reset")

	ack := h.svc.HandleCallback(context.Background(), successCallback(checkoutID))

	assert.Equal(t, 1, ack.ResultCode)
	assert.Equal(t, models.PaymentPending, h.payment(t, resp.PaymentID).Status)

	// The provider retries; the retry must still be applied.
	ack = h.svc.HandleCallback(context.Background(), successCallback(checkoutID))
	assert.Equal(t, 0, ack.ResultCode)
	assert.Equal(t, models.PaymentCompleted, h.payment(t, resp.PaymentID).Status)
}

type panickingPublisher struct{}

func (panickingPublisher) Publish(context.Context, events.Event) error { panic("broker exploded") }

func TestHandleCallbackRecoversFromPanic(t *testing.T) {
	h := newPaymentHarness(t)
	h.initiate(t)
	svc := NewPaymentService(memPayments{h.db}, memBookings{h.db}, h.gw, panickingPublisher{},
		cache.NewMemoryStore(), PaymentServiceConfig{})

	var ack models.CallbackAck
	require.NotPanics(t, func() {
		ack = svc.HandleCallback(context.Background(), successCallback(checkoutID))
	})
	assert.Equal(t, 1, ack.ResultCode)
}

func TestQueryAppliesProviderResult(t *testing.T) {
	tests := []struct {
		code       string
		wantStatus models.PaymentStatus
		wantBook   models.BookingStatus
	}{
		{"0", models.PaymentCompleted, models.BookingConfirmed},
		{"1032", models.PaymentFailed, models.BookingPending},
		{"", models.PaymentPending, models.BookingPending},
	}
	for _, tt := range tests {
		t.Run("code "+tt.code, func(t *testing.T) {
			h := newPaymentHarness(t)
			resp := h.initiate(t)
			h.gw.queryResp = &mpesa.STKQueryResponse{
				ResponseCode:      "0",
				MerchantRequestID: "29115-34620561-1",
				CheckoutRequestID: checkoutID,
				ResultCode:        json.Number(tt.code),
				ResultDesc:        "desc",
			}

			out, err := h.svc.Query(context.Background(), ownerID, checkoutID)
			require.NoError(t, err)

			assert.True(t, out.Success)
			assert.Equal(t, tt.code, out.ResultCode)
			assert.Equal(t, tt.wantStatus, out.PaymentStatus)
			assert.Equal(t, tt.wantStatus, h.payment(t, resp.PaymentID).Status)
			assert.Equal(t, tt.wantBook, h.currentBooking(t).BookingStatus)
		})
	}
}

func TestCallbackAfterQueryRecordsReceipt(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)
	ctx := context.Background()
	h.gw.queryResp = &mpesa.STKQueryResponse{
		ResponseCode:      "0",
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: checkoutID,
		ResultCode:        json.Number("0"),
		ResultDesc:        "The service request is processed successfully.",
	}

	_, err := h.svc.Query(ctx, ownerID, checkoutID)
	require.NoError(t, err)
	require.Nil(t, h.payment(t, resp.PaymentID).ReceiptNumber)

	ack := h.svc.HandleCallback(ctx, successCallback(checkoutID))

	assert.Equal(t, 0, ack.ResultCode)
	p := h.payment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	require.NotNil(t, p.ReceiptNumber)
	assert.Equal(t, "NLJ7RT61SV", *p.ReceiptNumber)
	assert.True(t, p.AmountPaid.Valid)
	assert.Len(t, h.pub.ofType(events.PaymentCompleted), 1)
	assert.Len(t, h.pub.ofType(events.BookingConfirmed), 1)

	// A later callback never overwrites the recorded receipt.
	h.newService(cache.NewMemoryStore()).HandleCallback(ctx, []byte(strings.Replace(
		string(successCallback(checkoutID)), "NLJ7RT61SV", "OTHER00000", 1)))
	assert.Equal(t, "NLJ7RT61SV", *h.payment(t, resp.PaymentID).ReceiptNumber)
}

func TestCompletedEventCarriesChargedAmount(t *testing.T) {
	t.Run("callback amount", func(t *testing.T) {
		h := newPaymentHarness(t)
		req := h.initiateRequest()
		req.Amount = decimal.RequireFromString("499.99")
		resp, err := h.svc.Initiate(context.Background(), ownerID, req, "")
		require.NoError(t, err)
		assert.Equal(t, int64(499), h.gw.lastPush.Amount.IntPart())

		ack := h.svc.HandleCallback(context.Background(), chargedCallback(checkoutID, "499"))
		require.Equal(t, 0, ack.ResultCode)

		p := h.payment(t, resp.PaymentID)
		require.True(t, p.AmountPaid.Valid)
		assert.Equal(t, "499", p.AmountPaid.Decimal.String())
		assert.Equal(t, "499.99", p.Amount.StringFixed(2))

		completed := h.pub.ofType(events.PaymentCompleted)
		require.Len(t, completed, 1)
		assert.Equal(t, "499", completed[0].Amount.String())
	})

	t.Run("query without amount", func(t *testing.T) {
		h := newPaymentHarness(t)
		req := h.initiateRequest()
		req.Amount = decimal.RequireFromString("499.99")
		_, err := h.svc.Initiate(context.Background(), ownerID, req, "")
		require.NoError(t, err)
		h.gw.queryResp = &mpesa.STKQueryResponse{
			ResponseCode:      "0",
			CheckoutRequestID: checkoutID,
			ResultCode:        json.Number("0"),
		}

		_, err = h.svc.Query(context.Background(), ownerID, checkoutID)
		require.NoError(t, err)

		completed := h.pub.ofType(events.PaymentCompleted)
		require.Len(t, completed, 1)
		assert.Equal(t, "499", completed[0].Amount.String())
	})
}

func TestQueryForbiddenForNonOwner(t *testing.T) {
	h := newPaymentHarness(t)
	h.initiate(t)

	_, err := h.svc.Query(context.Background(), strangerID, checkoutID)

	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, h.gw.queryCalls.Load())
}

func TestQueryUnknownCheckout(t *testing.T) {
	h := newPaymentHarness(t)

	_, err := h.svc.Query(context.Background(), ownerID, "ws_CO_unknown")
	require.ErrorIs(t, err, ErrPaymentNotFound)
	assert.Zero(t, h.gw.queryCalls.Load())
}

func TestQueryProviderError(t *testing.T) {
	h := newPaymentHarness(t)
	h.initiate(t)
	h.gw.queryErr = fmt.Errorf("%w: timeout", mpesa.ErrTransportFailure)

	out, err := h.svc.Query(context.Background(), ownerID, checkoutID)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, models.PaymentPending, out.PaymentStatus)
}

func TestGetPayment(t *testing.T) {
	h := newPaymentHarness(t)
	resp := h.initiate(t)
	ctx := context.Background()

	p, err := h.svc.Get(ctx, ownerID, resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, h.booking.ID, p.BookingID)

	_, err = h.svc.Get(ctx, strangerID, resp.PaymentID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Get(ctx, ownerID, 9999)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestListForBookingChecksOwnership(t *testing.T) {
	h := newPaymentHarness(t)
	h.initiate(t)

	_, err := h.svc.ListForBooking(context.Background(), strangerID, h.booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.ListForBooking(context.Background(), ownerID, 9999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
