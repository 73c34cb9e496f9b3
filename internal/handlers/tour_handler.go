package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/akylbek/safari-buddy/internal/middleware"
	"github.com/akylbek/safari-buddy/internal/models"
)

type TourService interface {
	Create(ctx context.Context, providerID int64, role models.UserRole, req models.CreateTourRequest) (*models.Tour, error)
	Update(ctx context.Context, userID int64, role models.UserRole, tourID int64, req models.CreateTourRequest) (*models.Tour, error)
	Deactivate(ctx context.Context, userID int64, role models.UserRole, tourID int64) error
	List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error)
	Get(ctx context.Context, id int64) (*models.Tour, error)
}

type TourHandler struct {
	svc TourService
}

func NewTourHandler(svc TourService) *TourHandler {
	return &TourHandler{svc: svc}
}

func (h *TourHandler) CreateTour(c *gin.Context) {
	var req models.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tour, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Tour created successfully", "tour_id": tour.ID})
}

func (h *TourHandler) UpdateTour(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if _, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tour updated successfully"})
}

func (h *TourHandler) DeleteTour(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tour deleted successfully"})
}

func (h *TourHandler) ListTours(c *gin.Context) {
	filter, err := parseTourFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	tours, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tours)
}

func (h *TourHandler) GetTour(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tour, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func parseTourFilter(c *gin.Context) (models.TourFilter, error) {
	filter := models.TourFilter{
		Category:    models.TourCategory(c.Query("category")),
		Destination: c.Query("destination"),
	}

	var err error
	if filter.Offset, err = intQuery(c, "skip"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return filter, err
	}
	return filter, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func decimalQuery(c *gin.Context, name string) (decimal.NullDecimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid %s", name)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
