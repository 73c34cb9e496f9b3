package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/safari-buddy/internal/mpesa"
)

// PaymentGateway is the subset of the M-PESA client used by the payment flow.
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	QuerySTKPush(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
}

// IdempotencyStore remembers values for a bounded time.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
