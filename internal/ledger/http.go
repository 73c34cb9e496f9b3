package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const maxEntries = 100

type Handler struct {
	store Store
}

func NewRouter(store Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "ledger"})
	})

	h := &Handler{store: store}
	r.GET("/accounts/:id", h.getAccount)
	r.GET("/accounts/:id/entries", h.getAccountEntries)
	r.GET("/payments/:id/entries", h.getPaymentEntries)
	return r
}

func (h *Handler) getAccount(c *gin.Context) {
	account, err := h.store.GetAccount(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to fetch account", err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) getAccountEntries(c *gin.Context) {
	entries, err := h.store.ListAccountEntries(c.Request.Context(), c.Param("id"), maxEntries)
	if err != nil {
		internalError(c, "Failed to fetch entries", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) getPaymentEntries(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	entries, err := h.store.ListPaymentEntries(c.Request.Context(), paymentID)
	if err != nil {
		internalError(c, "Failed to fetch entries", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func internalError(c *gin.Context, msg string, err error) {
	telemetry.Logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
