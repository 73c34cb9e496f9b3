package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodMpesa        PaymentMethod = "mpesa"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// CanTransition allows only pending→completed and pending→failed.
func CanTransition(from, to PaymentStatus) bool {
	return from == PaymentPending && (to == PaymentCompleted || to == PaymentFailed)
}

type Payment struct {
	ID                int64               `json:"payment_id"`
	BookingID         int64               `json:"booking_id"`
	Amount            decimal.Decimal     `json:"amount"`
	Method            PaymentMethod       `json:"payment_method"`
	Status            PaymentStatus       `json:"payment_status"`
	CheckoutRequestID *string             `json:"checkout_request_id,omitempty"`
	MerchantRequestID *string             `json:"transaction_id,omitempty"`
	ReceiptNumber     *string             `json:"mpesa_receipt_number,omitempty"`
	AmountPaid        decimal.NullDecimal `json:"amount_paid"`
	PhoneNumber       string              `json:"phone_number"`
	Details           *string             `json:"-"`
	IdempotencyKey    *string             `json:"-"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CollectedAmount is what the customer was actually charged: the amount
// reported by the provider, or the whole-shilling part of the requested
// amount when the provider did not report one.
func (p *Payment) CollectedAmount() decimal.Decimal {
	if p.AmountPaid.Valid {
		return p.AmountPaid.Decimal
	}
	return decimal.NewFromInt(p.Amount.IntPart())
}

// PaymentOutcome is a final provider verdict to apply to a pending payment.
type PaymentOutcome struct {
	Status        PaymentStatus
	ReceiptNumber string
	AmountPaid    decimal.NullDecimal
	Details       string
}

// FillsReceipt reports whether o carries a receipt that a payment already
// completed without one (for example after a status query) should adopt.
func (o PaymentOutcome) FillsReceipt(p *Payment) bool {
	return p.Status == PaymentCompleted && o.Status == PaymentCompleted &&
		p.ReceiptNumber == nil && o.ReceiptNumber != ""
}

type InitiatePaymentRequest struct {
	BookingID   int64           `json:"booking_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phone_number" binding:"required,ke_phone"`
}

type InitiatePaymentResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	PaymentID           int64  `json:"payment_id,omitempty"`
	MerchantRequestID   string `json:"merchant_request_id,omitempty"`
	CheckoutRequestID   string `json:"checkout_request_id,omitempty"`
	ResponseCode        string `json:"response_code,omitempty"`
	ResponseDescription string `json:"response_description,omitempty"`
	CustomerMessage     string `json:"customer_message,omitempty"`
}

// CachedInitiate is the stored result of an initiate call with an
// Idempotency-Key. The booking and amount let a replay reject a key reused
// for a different request.
type CachedInitiate struct {
	BookingID int64                   `json:"booking_id"`
	Amount    decimal.Decimal         `json:"amount"`
	Response  InitiatePaymentResponse `json:"response"`
}

// Matches reports whether a request asks for the same charge as the cached one.
func (c CachedInitiate) Matches(bookingID int64, amount decimal.Decimal) bool {
	return c.BookingID == bookingID && c.Amount.Equal(amount)
}

type QueryPaymentRequest struct {
	CheckoutRequestID string `json:"checkout_request_id" binding:"required"`
}

type QueryPaymentResponse struct {
	Success           bool          `json:"success"`
	ResultCode        string        `json:"result_code,omitempty"`
	ResultDesc        string        `json:"result_desc,omitempty"`
	MerchantRequestID string        `json:"merchant_request_id,omitempty"`
	CheckoutRequestID string        `json:"checkout_request_id,omitempty"`
	PaymentStatus     PaymentStatus `json:"payment_status,omitempty"`
}

type PaymentListResponse struct {
	Payments []*Payment `json:"payments"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// CallbackAck is the only body ever returned to the provider's webhook call.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
