package repository

import (
	"context"
	"database/sql"

	"github.com/akylbek/safari-buddy/internal/models"
)

const tourColumns = `id, provider_id, title, description, category, destination, duration_days,
	price_per_person, start_date, end_date, min_participants, max_participants,
	current_participants, is_group_tour, is_active, created_at, updated_at`

type TourRepository struct {
	db *sql.DB
}

func NewTourRepository(db *sql.DB) *TourRepository {
	return &TourRepository{db: db}
}

func scanTour(row rowScanner) (*models.Tour, error) {
	var (
		t   models.Tour
		max sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.ProviderID, &t.Title, &t.Description, &t.Category, &t.Destination,
		&t.DurationDays, &t.PricePerPerson, &t.StartDate, &t.EndDate, &t.MinParticipants, &max,
		&t.CurrentParticipants, &t.IsGroupTour, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if max.Valid {
		n := int(max.Int64)
		t.MaxParticipants = &n
	}
	return &t, nil
}

func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tours (provider_id, title, description, category, destination, duration_days,
			price_per_person, start_date, end_date, min_participants, max_participants,
			is_group_tour, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, current_participants, created_at, updated_at
	`, tour.ProviderID, tour.Title, tour.Description, tour.Category, tour.Destination, tour.DurationDays,
		tour.PricePerPerson, tour.StartDate, tour.EndDate, tour.MinParticipants, tour.MaxParticipants,
		tour.IsGroupTour, tour.IsActive,
	).Scan(&tour.ID, &tour.CurrentParticipants, &tour.CreatedAt, &tour.UpdatedAt)
	return mapError(err)
}

func (r *TourRepository) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	return scanTour(r.db.QueryRowContext(ctx,
		`SELECT `+tourColumns+` FROM tours WHERE id = $1`, id))
}

// List returns active tours, newest first. Empty filter fields match anything.
func (r *TourRepository) List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tourColumns+` FROM tours
		WHERE is_active = TRUE
			AND ($1::text = '' OR category = $1)
			AND ($2::text = '' OR destination ILIKE '%' || $2 || '%')
			AND ($3::numeric IS NULL OR price_per_person >= $3)
			AND ($4::numeric IS NULL OR price_per_person <= $4)
		ORDER BY created_at DESC, id DESC
		LIMIT $5 OFFSET $6
	`, string(filter.Category), filter.Destination, filter.MinPrice, filter.MaxPrice, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tours := []*models.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (r *TourRepository) Update(ctx context.Context, tour *models.Tour) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE tours
		SET title = $1, description = $2, category = $3, destination = $4, duration_days = $5,
			price_per_person = $6, start_date = $7, end_date = $8, min_participants = $9,
			max_participants = $10, is_group_tour = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING current_participants, is_active, updated_at
	`, tour.Title, tour.Description, tour.Category, tour.Destination, tour.DurationDays,
		tour.PricePerPerson, tour.StartDate, tour.EndDate, tour.MinParticipants, tour.MaxParticipants,
		tour.IsGroupTour, tour.ID,
	).Scan(&tour.CurrentParticipants, &tour.IsActive, &tour.UpdatedAt)
	return mapError(err)
}

// Deactivate hides the tour from listings and new bookings. Rows are kept
// because bookings reference them.
func (r *TourRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tours SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
