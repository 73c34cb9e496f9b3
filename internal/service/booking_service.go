package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/repository"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const referenceAttempts = 3

type BookingService struct {
	bookings  interfaces.BookingRepository
	publisher interfaces.EventPublisher
	newRef    func() string
}

func NewBookingService(bookings interfaces.BookingRepository, publisher interfaces.EventPublisher) *BookingService {
	return &BookingService{bookings: bookings, publisher: publisher, newRef: NewBookingReference}
}

// NewBookingReference returns SB- followed by eight upper-case hex digits.
func NewBookingReference() string {
	return "SB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *BookingService) Create(ctx context.Context, userID int64, req models.CreateBookingRequest) (*models.Booking, error) {
	if req.NumberOfPeople < 1 {
		return nil, ErrInvalidPartySize
	}

	booking := &models.Booking{
		UserID:          userID,
		TourID:          req.TourID,
		NumberOfPeople:  req.NumberOfPeople,
		BookingStatus:   models.BookingPending,
		PaymentStatus:   models.BookingPaymentPending,
		SpecialRequests: req.SpecialRequests,
	}

	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		booking.BookingReference = s.newRef()
		err = s.bookings.CreateWithCapacity(ctx, booking)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		telemetry.BookingsCreated.WithLabelValues("tour_not_found").Inc()
		return nil, ErrTourNotFound
	case errors.Is(err, repository.ErrTourInactive):
		telemetry.BookingsCreated.WithLabelValues("tour_inactive").Inc()
		return nil, ErrTourInactive
	case errors.Is(err, repository.ErrCapacityExceeded):
		telemetry.BookingsCreated.WithLabelValues("capacity_exceeded").Inc()
		return nil, ErrCapacityExceeded
	default:
		telemetry.BookingsCreated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create booking: %w", err)
	}

	telemetry.BookingsCreated.WithLabelValues("created").Inc()
	telemetry.Logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("tour_id", booking.TourID),
		zap.String("booking_reference", booking.BookingReference),
	)
	publishQuietly(ctx, s.publisher, events.NewBookingEvent(events.BookingCreated, booking))
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
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

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// Cancel releases the booking's seats. Cancelling twice is a no-op.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID)
	if errors.Is(err, repository.ErrInvalidState) {
		return nil, ErrBookingNotCancellable
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	booking.BookingStatus = models.BookingCancelled
	if cancelled {
		telemetry.Logger.Info("Booking cancelled", zap.Int64("booking_id", booking.ID))
		publishQuietly(ctx, s.publisher, events.NewBookingEvent(events.BookingCancelled, booking))
	}
	return booking, nil
}

func publishQuietly(ctx context.Context, p interfaces.EventPublisher, e events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		telemetry.Logger.Error("Failed to publish event",
			zap.String("event_type", string(e.Type)),
			zap.Int64("booking_id", e.BookingID),
			zap.Error(err),
		)
	}
}
