// Package ledger keeps a double-entry record of collected tour revenue. It
// consumes payment.completed events and splits each collection between the
// tour provider and the platform fee account.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const PlatformAccountID = "platform"

type EntryType string

const (
	Credit EntryType = "credit"
	Debit  EntryType = "debit"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUnknownBooking  = errors.New("booking not found")
)

type Account struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type Entry struct {
	ID        int64           `json:"id"`
	AccountID string          `json:"account_id"`
	PaymentID int64           `json:"payment_id"`
	Type      EntryType       `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Collection is one completed payment split into provider and platform shares.
type Collection struct {
	PaymentID      int64
	BookingID      int64
	ProviderAmount decimal.Decimal
	PlatformFee    decimal.Decimal
}

// IdempotencyKey identifies one leg of a collection. Replayed events produce
// the same keys and are ignored by the store.
func (c Collection) IdempotencyKey(leg string) string {
	return "payment-" + strconv.FormatInt(c.PaymentID, 10) + "-completed-" + leg
}

func ProviderAccountID(providerID int64) string {
	return fmt.Sprintf("provider-%d", providerID)
}

type Store interface {
	// RecordCollection credits both legs in one transaction and reports
	// whether anything new was written.
	RecordCollection(ctx context.Context, c Collection) (bool, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccountEntries(ctx context.Context, accountID string, limit int) ([]*Entry, error)
	ListPaymentEntries(ctx context.Context, paymentID int64) ([]*Entry, error)
}
