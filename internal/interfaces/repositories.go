package interfaces

import (
	"context"

	"github.com/akylbek/safari-buddy/internal/models"
)

// PaymentRepository defines the contract for payment attempt storage
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]*models.Payment, error)
	// AttachProviderIDs records the provider's identifiers on a pending payment.
	AttachProviderIDs(ctx context.Context, id int64, merchantRequestID, checkoutRequestID string) error
	// MarkFailed fails a pending payment that never reached the provider.
	MarkFailed(ctx context.Context, id int64, details string) error
	// ApplyOutcome finalizes the pending payment with the given checkout id
	// and, on completion, confirms its booking, all in one transaction. The
	// returned flag is false when the payment was already final.
	ApplyOutcome(ctx context.Context, checkoutRequestID string, outcome models.PaymentOutcome) (*models.Payment, bool, error)
}

type BookingRepository interface {
	// CreateWithCapacity reserves seats on the tour and inserts the booking
	// atomically.
	CreateWithCapacity(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error)
	// Cancel cancels the booking and releases its seats. It reports false
	// when the booking was already cancelled.
	Cancel(ctx context.Context, id int64) (bool, error)
}

type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	GetByID(ctx context.Context, id int64) (*models.Tour, error)
	List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error)
	Update(ctx context.Context, tour *models.Tour) error
	Deactivate(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}

type ReviewRepository interface {
	// Create returns repository.ErrDuplicate when the booking already has a
	// review.
	Create(ctx context.Context, review *models.Review) error
	ListByTarget(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error)
	Stats(ctx context.Context, targetID int64) (*models.ReviewStats, error)
}
