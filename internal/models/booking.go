package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// BookingPaymentStatus is tracked separately from the lifecycle status.
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPartial  BookingPaymentStatus = "partial"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

type Booking struct {
	ID               int64                `json:"id"`
	UserID           int64                `json:"user_id"`
	TourID           int64                `json:"tour_id"`
	NumberOfPeople   int                  `json:"number_of_people"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	BookingStatus    BookingStatus        `json:"booking_status"`
	PaymentStatus    BookingPaymentStatus `json:"payment_status"`
	SpecialRequests  *string              `json:"special_requests,omitempty"`
	BookingReference string               `json:"booking_reference"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type CreateBookingRequest struct {
	TourID          int64   `json:"tour_id" binding:"required"`
	NumberOfPeople  int     `json:"number_of_people" binding:"required,min=1"`
	SpecialRequests *string `json:"special_requests"`
}

type CreateBookingResponse struct {
	Message          string          `json:"message"`
	BookingID        int64           `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}
