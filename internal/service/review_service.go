package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/repository"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const (
	defaultReviewLimit = 20
	maxReviewLimit     = 100
)

type ReviewService struct {
	reviews  interfaces.ReviewRepository
	bookings interfaces.BookingRepository
	tours    interfaces.TourRepository
}

func NewReviewService(reviews interfaces.ReviewRepository, bookings interfaces.BookingRepository, tours interfaces.TourRepository) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, tours: tours}
}

// reviewable reports whether a traveller may review the booking. Payment
// confirms a booking, so confirmed counts as paid.
func reviewable(status models.BookingStatus) bool {
	return status == models.BookingConfirmed || status == models.BookingCompleted
}

// Create records the caller's review of their booking. The review targets
// the tour's provider.
func (s *ReviewService) Create(ctx context.Context, userID int64, req models.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrForbidden
	}
	if !reviewable(booking.BookingStatus) {
		return nil, ErrBookingNotReviewable
	}

	tour, err := s.tours.GetByID(ctx, booking.TourID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		BookingID: booking.ID,
		UserID:    userID,
		TargetID:  tour.ProviderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Photos:    req.Photos,
	}
	err = s.reviews.Create(ctx, review)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrReviewExists
	}
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	telemetry.Logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("booking_id", review.BookingID),
		zap.Int64("target_id", review.TargetID),
	)
	return review, nil
}

func (s *ReviewService) ListForProvider(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultReviewLimit
	}
	if filter.Limit > maxReviewLimit {
		filter.Limit = maxReviewLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.reviews.ListByTarget(ctx, filter)
}

// Stats returns the provider's review summary with the average rounded to
// two decimals.
func (s *ReviewService) Stats(ctx context.Context, providerID int64) (*models.ReviewStats, error) {
	stats, err := s.reviews.Stats(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	stats.AverageRating = math.Round(stats.AverageRating*100) / 100
	return stats, nil
}
