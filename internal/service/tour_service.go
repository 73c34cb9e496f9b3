package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/repository"
)

const (
	defaultTourLimit = 20
	maxTourLimit     = 100
)

type TourService struct {
	tours interfaces.TourRepository
}

func NewTourService(tours interfaces.TourRepository) *TourService {
	return &TourService{tours: tours}
}

func canProvideTours(role models.UserRole) bool {
	return role == models.RoleGuide || role == models.RoleCompany || role == models.RoleAdmin
}

func (s *TourService) Create(ctx context.Context, providerID int64, role models.UserRole, req models.CreateTourRequest) (*models.Tour, error) {
	if !canProvideTours(role) {
		return nil, ErrForbidden
	}
	tour := &models.Tour{ProviderID: providerID, IsActive: true}
	if err := applyTourRequest(tour, req); err != nil {
		return nil, err
	}
	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	return tour, nil
}

// Update replaces the tour's details. Only its provider or an admin may do so.
func (s *TourService) Update(ctx context.Context, userID int64, role models.UserRole, tourID int64, req models.CreateTourRequest) (*models.Tour, error) {
	tour, err := s.editable(ctx, userID, role, tourID)
	if err != nil {
		return nil, err
	}
	if err := applyTourRequest(tour, req); err != nil {
		return nil, err
	}
	if tour.MaxParticipants != nil && *tour.MaxParticipants < tour.CurrentParticipants {
		return nil, fmt.Errorf("%w: max participants below current bookings", ErrInvalidTour)
	}
	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	return tour, nil
}

func (s *TourService) Deactivate(ctx context.Context, userID int64, role models.UserRole, tourID int64) error {
	if _, err := s.editable(ctx, userID, role, tourID); err != nil {
		return err
	}
	return s.tours.Deactivate(ctx, tourID)
}

func (s *TourService) List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultTourLimit
	}
	if filter.Limit > maxTourLimit {
		filter.Limit = maxTourLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.tours.List(ctx, filter)
}

func (s *TourService) Get(ctx context.Context, id int64) (*models.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	return tour, err
}

func (s *TourService) editable(ctx context.Context, userID int64, role models.UserRole, tourID int64) (*models.Tour, error) {
	tour, err := s.Get(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && tour.ProviderID != userID {
		return nil, ErrForbidden
	}
	return tour, nil
}

func applyTourRequest(t *models.Tour, req models.CreateTourRequest) error {
	if !req.PricePerPerson.IsPositive() {
		return fmt.Errorf("%w: price per person must be positive", ErrInvalidTour)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidTour)
	}
	minPeople := req.MinParticipants
	if minPeople < 1 {
		minPeople = 1
	}
	if req.MaxParticipants != nil && *req.MaxParticipants < minPeople {
		return fmt.Errorf("%w: max participants below minimum", ErrInvalidTour)
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Category = req.Category
	t.Destination = req.Destination
	t.DurationDays = req.DurationDays
	t.PricePerPerson = req.PricePerPerson
	t.StartDate = req.StartDate
	t.EndDate = req.EndDate
	t.MinParticipants = minPeople
	t.MaxParticipants = req.MaxParticipants
	t.IsGroupTour = req.IsGroupTour
	return nil
}
