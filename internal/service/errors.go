package service

import "errors"

var (
	ErrForbidden          = errors.New("not authorized to access this resource")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountSuspended   = errors.New("your account has been suspended")
	ErrUserExists         = errors.New("user with this email or phone already exists")
	ErrUserNotFound       = errors.New("user not found")

	ErrTourNotFound = errors.New("tour not found")
	ErrTourInactive = errors.New("this tour is no longer available")
	ErrInvalidTour  = errors.New("invalid tour details")

	ErrBookingNotFound       = errors.New("booking not found")
	ErrCapacityExceeded      = errors.New("not enough spots available")
	ErrBookingNotCancellable = errors.New("cannot cancel completed booking")
	ErrBookingNotPayable     = errors.New("booking cannot be paid")
	ErrInvalidPartySize      = errors.New("number of people must be at least 1")

	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidAmount   = errors.New("amount must be at least 1 KES")
	// ErrIdempotencyKeyReused means the key already belongs to a payment for
	// another booking or amount.
	ErrIdempotencyKeyReused = errors.New("Idempotency-Key was already used for a different payment request")

	ErrReviewExists         = errors.New("review already exists for this booking")
	ErrBookingNotReviewable = errors.New("can only review paid or completed bookings")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
)
