package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akylbek/safari-buddy/internal/models"
)

type Type string

const (
	PaymentInitiated Type = "payment.initiated"
	PaymentCompleted Type = "payment.completed"
	PaymentFailed    Type = "payment.failed"
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
)

// Event is the JSON document published for every payment or booking state change.
type Event struct {
	ID                string          `json:"event_id"`
	Type              Type            `json:"type"`
	PaymentID         int64           `json:"payment_id,omitempty"`
	BookingID         int64           `json:"booking_id"`
	Status            string          `json:"status"`
	CheckoutRequestID string          `json:"checkout_request_id,omitempty"`
	ReceiptNumber     string          `json:"receipt_number,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	OccurredAt        time.Time       `json:"occurred_at"`
}

// Key partitions events so one booking's history stays ordered.
func (e Event) Key() string {
	return "booking-" + strconv.FormatInt(e.BookingID, 10)
}

func NewPaymentEvent(t Type, p *models.Payment) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       t,
		PaymentID:  p.ID,
		BookingID:  p.BookingID,
		Status:     string(p.Status),
		Amount:     p.Amount,
		OccurredAt: time.Now().UTC(),
	}
	if p.Status == models.PaymentCompleted {
		e.Amount = p.CollectedAmount()
	}
	if p.CheckoutRequestID != nil {
		e.CheckoutRequestID = *p.CheckoutRequestID
	}
	if p.ReceiptNumber != nil {
		e.ReceiptNumber = *p.ReceiptNumber
	}
	return e
}

// NewBookingConfirmedEvent describes the booking confirmation caused by a
// completed payment.
func NewBookingConfirmedEvent(p *models.Payment) Event {
	e := NewPaymentEvent(BookingConfirmed, p)
	e.Status = string(models.BookingConfirmed)
	return e
}

func NewBookingEvent(t Type, b *models.Booking) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		BookingID:  b.ID,
		Status:     string(b.BookingStatus),
		Amount:     b.TotalAmount,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
