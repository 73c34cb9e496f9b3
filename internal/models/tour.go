package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TourCategory string

const (
	CategoryWildlife  TourCategory = "wildlife"
	CategoryBeach     TourCategory = "beach"
	CategoryMountain  TourCategory = "mountain"
	CategoryCultural  TourCategory = "cultural"
	CategoryAdventure TourCategory = "adventure"
	CategoryWellness  TourCategory = "wellness"
	CategoryCity      TourCategory = "city"
	CategoryRoadTrip  TourCategory = "road_trip"
)

type Tour struct {
	ID                  int64           `json:"id"`
	ProviderID          int64           `json:"provider_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Category            TourCategory    `json:"category"`
	Destination         string          `json:"destination"`
	DurationDays        int             `json:"duration_days"`
	PricePerPerson      decimal.Decimal `json:"price_per_person"`
	StartDate           *time.Time      `json:"start_date,omitempty"`
	EndDate             *time.Time      `json:"end_date,omitempty"`
	MinParticipants     int             `json:"min_participants"`
	MaxParticipants     *int            `json:"max_participants,omitempty"`
	CurrentParticipants int             `json:"current_participants"`
	IsGroupTour         bool            `json:"is_group_tour"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// HasRoomFor reports whether n more participants fit. Tours without a
// maximum are unbounded.
func (t *Tour) HasRoomFor(n int) bool {
	if t.MaxParticipants == nil {
		return true
	}
	return t.CurrentParticipants+n <= *t.MaxParticipants
}

type CreateTourRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Category        TourCategory    `json:"category" binding:"required,oneof=wildlife beach mountain cultural adventure wellness city road_trip"`
	Destination     string          `json:"destination" binding:"required"`
	DurationDays    int             `json:"duration_days" binding:"required,min=1"`
	PricePerPerson  decimal.Decimal `json:"price_per_person"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	MinParticipants int             `json:"min_participants"`
	MaxParticipants *int            `json:"max_participants" binding:"omitempty,min=1"`
	IsGroupTour     bool            `json:"is_group_tour"`
}

type TourFilter struct {
	Category    TourCategory
	Destination string
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	Limit       int
	Offset      int
}
