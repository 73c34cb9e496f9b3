package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/safari-buddy/internal/models"
)

func tourRequest() models.CreateTourRequest {
	return models.CreateTourRequest{
		Title:          "Mount Kenya trek",
		Description:    "Five days on Sirimon and Chogoria routes",
		Category:       models.CategoryMountain,
		Destination:    "Mount Kenya",
		DurationDays:   5,
		PricePerPerson: decimal.RequireFromString("42000"),
	}
}

func TestCreateTourRoles(t *testing.T) {
	svc := NewTourService(memTours{newMemDB()})
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, models.RoleTourist, tourRequest())
	assert.ErrorIs(t, err, ErrForbidden)

	for _, role := range []models.UserRole{models.RoleGuide, models.RoleCompany, models.RoleAdmin} {
		tour, err := svc.Create(ctx, 7, role, tourRequest())
		require.NoError(t, err, role)
		assert.Equal(t, int64(7), tour.ProviderID)
		assert.True(t, tour.IsActive)
		assert.Equal(t, 1, tour.MinParticipants)
	}
}

func TestCreateTourValidation(t *testing.T) {
	svc := NewTourService(memTours{newMemDB()})
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	cases := map[string]func(r *models.CreateTourRequest){
		"zero price":     func(r *models.CreateTourRequest) { r.PricePerPerson = decimal.Zero },
		"end before":     func(r *models.CreateTourRequest) { r.StartDate, r.EndDate = &start, &before },
		"max below min":  func(r *models.CreateTourRequest) { r.MinParticipants, r.MaxParticipants = 4, intPtr(2) },
		"negative price": func(r *models.CreateTourRequest) { r.PricePerPerson = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := tourRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), 1, models.RoleGuide, req)
			assert.ErrorIs(t, err, ErrInvalidTour)
		})
	}
}

func TestUpdateAndDeactivateTour(t *testing.T) {
	db := newMemDB()
	svc := NewTourService(memTours{db})
	ctx := context.Background()

	tour, err := svc.Create(ctx, 7, models.RoleGuide, tourRequest())
	require.NoError(t, err)

	req := tourRequest()
	req.Title = "Mount Kenya summit trek"
	_, err = svc.Update(ctx, 8, models.RoleGuide, tour.ID, req)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, 7, models.RoleGuide, tour.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Mount Kenya summit trek", updated.Title)

	db.tours[tour.ID].CurrentParticipants = 5
	req.MaxParticipants = intPtr(3)
	_, err = svc.Update(ctx, 7, models.RoleGuide, tour.ID, req)
	assert.ErrorIs(t, err, ErrInvalidTour)

	require.NoError(t, svc.Deactivate(ctx, 99, models.RoleAdmin, tour.ID))
	assert.False(t, db.tours[tour.ID].IsActive)

	_, err = svc.Update(ctx, 7, models.RoleGuide, 9999, req)
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestListToursAppliesLimits(t *testing.T) {
	db := newMemDB()
	svc := NewTourService(memTours{db})
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, 1, models.RoleCompany, tourRequest())
		require.NoError(t, err)
	}

	tours, err := svc.List(ctx, models.TourFilter{})
	require.NoError(t, err)
	assert.Len(t, tours, 20)

	tours, err = svc.List(ctx, models.TourFilter{Limit: 1000, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, tours, 25)

	tours, err = svc.List(ctx, models.TourFilter{Category: models.CategoryBeach})
	require.NoError(t, err)
	assert.Empty(t, tours)
}

func TestGetTour(t *testing.T) {
	svc := NewTourService(memTours{newMemDB()})

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTourNotFound)
}
