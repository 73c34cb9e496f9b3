package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lib/pq"

	"github.com/akylbek/safari-buddy/internal/models"
)

const reviewColumns = `id, booking_id, user_id, target_id, rating, comment, photos, helpful_count,
	created_at, updated_at`

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.BookingID, &r.UserID, &r.TargetID, &r.Rating, &r.Comment,
		pq.Array(&r.Photos), &r.HelpfulCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

// Create inserts the review. A second review for the same booking returns
// ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.Photos == nil {
		review.Photos = []string{}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (booking_id, user_id, target_id, rating, comment, photos)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, helpful_count, created_at, updated_at
	`, review.BookingID, review.UserID, review.TargetID, review.Rating, review.Comment, pq.Array(review.Photos),
	).Scan(&review.ID, &review.HelpfulCount, &review.CreatedAt, &review.UpdatedAt)
	return mapError(err)
}

func (r *ReviewRepository) ListByTarget(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews WHERE target_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3
	`, filter.TargetID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Stats(ctx context.Context, targetID int64) (*models.ReviewStats, error) {
	var (
		stats   = &models.ReviewStats{RatingDistribution: map[string]int{}}
		average sql.NullFloat64
		stars   [5]int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(rating),
			COUNT(*) FILTER (WHERE rating = 1),
			COUNT(*) FILTER (WHERE rating = 2),
			COUNT(*) FILTER (WHERE rating = 3),
			COUNT(*) FILTER (WHERE rating = 4),
			COUNT(*) FILTER (WHERE rating = 5)
		FROM reviews WHERE target_id = $1
	`, targetID).Scan(&stats.TotalReviews, &average, &stars[0], &stars[1], &stars[2], &stars[3], &stars[4])
	if err != nil {
		return nil, err
	}

	stats.AverageRating = average.Float64
	for i, n := range stars {
		stats.RatingDistribution[strconv.Itoa(i+1)] = n
	}
	return stats, nil
}
