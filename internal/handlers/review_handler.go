package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/safari-buddy/internal/middleware"
	"github.com/akylbek/safari-buddy/internal/models"
)

type ReviewService interface {
	Create(ctx context.Context, userID int64, req models.CreateReviewRequest) (*models.Review, error)
	ListForProvider(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error)
	Stats(ctx context.Context, providerID int64) (*models.ReviewStats, error)
}

type ReviewHandler struct {
	svc ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CreateReviewResponse{
		Message:  "Review created successfully",
		ReviewID: review.ID,
	})
}

func (h *ReviewHandler) ListProviderReviews(c *gin.Context) {
	providerID, ok := idParam(c, "provider_id")
	if !ok {
		return
	}
	filter := models.ReviewFilter{TargetID: providerID}
	var err error
	if filter.Offset, err = intQuery(c, "skip"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		badRequest(c, err)
		return
	}

	reviews, err := h.svc.ListForProvider(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ProviderStats(c *gin.Context) {
	providerID, ok := idParam(c, "provider_id")
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
