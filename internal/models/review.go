package models

import "time"

// Review rates the provider of a booked tour. TargetID is the provider's
// user id.
type Review struct {
	ID           int64     `json:"id"`
	BookingID    int64     `json:"booking_id"`
	UserID       int64     `json:"user_id"`
	TargetID     int64     `json:"target_id"`
	Rating       float64   `json:"rating"`
	Comment      *string   `json:"comment"`
	Photos       []string  `json:"photos"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateReviewRequest struct {
	BookingID int64    `json:"booking_id" binding:"required"`
	Rating    float64  `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   *string  `json:"comment"`
	Photos    []string `json:"photos" binding:"max=10,dive,url"`
}

type CreateReviewResponse struct {
	Message  string `json:"message"`
	ReviewID int64  `json:"review_id"`
}

type ReviewFilter struct {
	TargetID int64
	Limit    int
	Offset   int
}

// ReviewStats summarizes a provider's reviews. RatingDistribution counts
// whole-star ratings keyed "1" to "5".
type ReviewStats struct {
	TotalReviews       int            `json:"total_reviews"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}
