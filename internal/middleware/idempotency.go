package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/cache"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	ContextIdempotencyKey = "idempotency_key"
	maxIdempotencyKeyLen  = 200
)

// IdempotencyMiddleware replays a cached response for a repeated
// Idempotency-Key. The header is optional; without it requests pass through.
// It must run after AuthMiddleware because keys are scoped per caller.
func IdempotencyMiddleware(store interfaces.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key is too long"})
			return
		}

		cached, ok, err := store.Get(c.Request.Context(), cache.InitiateKey(UserID(c), key))
		if err != nil {
			// Fall through; the service still checks the database.
			telemetry.Logger.Warn("Idempotency cache lookup failed", zap.Error(err))
		}
		if ok {
			var entry models.CachedInitiate
			if err := json.Unmarshal(cached, &entry); err != nil {
				telemetry.Logger.Warn("Discarding unreadable idempotency entry", zap.Error(err))
			} else if bookingID, amount, parsed := peekCharge(c); parsed {
				if !entry.Matches(bookingID, amount) {
					c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
						gin.H{"error": "Idempotency-Key was already used for a different payment request"})
					return
				}
				c.Header("Idempotent-Replayed", "true")
				c.AbortWithStatusJSON(http.StatusOK, entry.Response)
				return
			}
		}

		c.Set(ContextIdempotencyKey, key)
		c.Next()
	}
}

// peekCharge reads booking_id and amount from the JSON body and restores the
// body for the handler.
func peekCharge(c *gin.Context) (int64, decimal.Decimal, bool) {
	if c.Request.Body == nil {
		return 0, decimal.Zero, false
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return 0, decimal.Zero, false
	}

	var req struct {
		BookingID int64           `json:"booking_id"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return 0, decimal.Zero, false
	}
	return req.BookingID, req.Amount, true
}
