package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

var hundred = decimal.NewFromInt(100)

// Recorder turns payment.completed events into ledger collections.
type Recorder struct {
	store      Store
	feePercent decimal.Decimal
}

func NewRecorder(store Store, feePercent decimal.Decimal) *Recorder {
	return &Recorder{store: store, feePercent: feePercent}
}

// Split divides amount into the provider share and the platform fee. The fee
// is rounded to cents so both legs always sum to the amount.
func (r *Recorder) Split(amount decimal.Decimal) (provider, fee decimal.Decimal) {
	fee = amount.Mul(r.feePercent).Div(hundred).Round(2)
	return amount.Sub(fee), fee
}

func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	if event.Type != events.PaymentCompleted {
		telemetry.LedgerEvents.WithLabelValues("skipped").Inc()
		return nil
	}
	if event.PaymentID == 0 || !event.Amount.IsPositive() {
		telemetry.Logger.Warn("Ignoring payment event without amount",
			zap.String("event_id", event.ID),
			zap.Int64("payment_id", event.PaymentID),
		)
		telemetry.LedgerEvents.WithLabelValues("invalid").Inc()
		return nil
	}

	provider, fee := r.Split(event.Amount)
	written, err := r.store.RecordCollection(ctx, Collection{
		PaymentID:      event.PaymentID,
		BookingID:      event.BookingID,
		ProviderAmount: provider,
		PlatformFee:    fee,
	})
	if err != nil {
		telemetry.LedgerEvents.WithLabelValues("error").Inc()
		return fmt.Errorf("record payment %d: %w", event.PaymentID, err)
	}
	if !written {
		telemetry.LedgerEvents.WithLabelValues("duplicate").Inc()
		telemetry.Logger.Info("Payment already recorded", zap.Int64("payment_id", event.PaymentID))
		return nil
	}

	telemetry.LedgerEvents.WithLabelValues("recorded").Inc()
	telemetry.Logger.Info("Recorded ledger entries",
		zap.Int64("payment_id", event.PaymentID),
		zap.Int64("booking_id", event.BookingID),
		zap.String("provider_amount", provider.String()),
		zap.String("platform_fee", fee.String()),
	)
	return nil
}

func decodeEvent(data []byte) (events.Event, error) {
	var event events.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
