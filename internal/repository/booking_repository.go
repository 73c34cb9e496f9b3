package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/akylbek/safari-buddy/internal/models"
)

const bookingColumns = `id, user_id, tour_id, number_of_people, total_amount, booking_status,
	payment_status, special_requests, booking_reference, created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.TourID, &b.NumberOfPeople, &b.TotalAmount, &b.BookingStatus,
		&b.PaymentStatus, &b.SpecialRequests, &b.BookingReference, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

// CreateWithCapacity locks the tour row so concurrent bookings for the last
// seats are serialized. TotalAmount is computed from the locked price.
func (r *BookingRepository) CreateWithCapacity(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		price    decimal.Decimal
		max      sql.NullInt64
		current  int
		isActive bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT price_per_person, max_participants, current_participants, is_active
		FROM tours WHERE id = $1 FOR UPDATE
	`, booking.TourID).Scan(&price, &max, &current, &isActive)
	if err != nil {
		return mapError(err)
	}

	if !isActive {
		return ErrTourInactive
	}
	if max.Valid && int64(current+booking.NumberOfPeople) > max.Int64 {
		return ErrCapacityExceeded
	}

	booking.TotalAmount = price.Mul(decimal.NewFromInt(int64(booking.NumberOfPeople)))

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, tour_id, number_of_people, total_amount, booking_status,
			payment_status, special_requests, booking_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, booking.UserID, booking.TourID, booking.NumberOfPeople, booking.TotalAmount, booking.BookingStatus,
		booking.PaymentStatus, booking.SpecialRequests, booking.BookingReference,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tours SET current_participants = current_participants + $1, updated_at = NOW()
		WHERE id = $2
	`, booking.NumberOfPeople, booking.TourID); err != nil {
		return fmt.Errorf("reserve seats on tour %d: %w", booking.TourID, err)
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var (
		status models.BookingStatus
		tourID int64
		people int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT booking_status, tour_id, number_of_people FROM bookings WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status, &tourID, &people)
	if err != nil {
		return false, mapError(err)
	}

	switch status {
	case models.BookingCancelled:
		return false, nil
	case models.BookingCompleted:
		return false, ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET booking_status = 'cancelled', updated_at = NOW() WHERE id = $1`, id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tours SET current_participants = GREATEST(current_participants - $1, 0), updated_at = NOW()
		WHERE id = $2
	`, people, tourID); err != nil {
		return false, fmt.Errorf("release seats on tour %d: %w", tourID, err)
	}

	return true, tx.Commit()
}
