package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordCollection(ctx context.Context, c Collection) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var providerID int64
	err = tx.QueryRowContext(ctx, `
		SELECT t.provider_id FROM bookings b JOIN tours t ON t.id = b.tour_id WHERE b.id = $1
	`, c.BookingID).Scan(&providerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("resolve provider for booking %d: %w", c.BookingID, ErrUnknownBooking)
	}
	if err != nil {
		return false, fmt.Errorf("resolve provider for booking %d: %w", c.BookingID, err)
	}

	providerAccount := ProviderAccountID(providerID)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, type) VALUES ($1, 'provider') ON CONFLICT (id) DO NOTHING
	`, providerAccount); err != nil {
		return false, err
	}

	wroteProvider, err := recordEntry(ctx, tx, providerAccount, c.PaymentID, Credit, c.ProviderAmount, c.IdempotencyKey("provider"))
	if err != nil {
		return false, err
	}
	wroteFee, err := recordEntry(ctx, tx, PlatformAccountID, c.PaymentID, Credit, c.PlatformFee, c.IdempotencyKey("platform"))
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return wroteProvider || wroteFee, nil
}

// recordEntry inserts one leg and moves the account balance. A leg that was
// already recorded leaves the balance alone.
func recordEntry(ctx context.Context, tx *sql.Tx, accountID string, paymentID int64, entryType EntryType, amount decimal.Decimal, key string) (bool, error) {
	if amount.IsZero() {
		return false, nil
	}

	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		return false, fmt.Errorf("lock account %s: %w", accountID, err)
	}

	newBalance := balance.Add(amount)
	if entryType == Debit {
		newBalance = balance.Sub(amount)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (account_id, payment_id, entry_type, amount, balance, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, accountID, paymentID, entryType, amount, newBalance, key)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, newBalance, accountID)
	return err == nil, err
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, balance, created_at FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Type, &a.Balance, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListAccountEntries(ctx context.Context, accountID string, limit int) ([]*Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, account_id, payment_id, entry_type, amount, balance, created_at
		FROM ledger_entries WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
}

func (s *PostgresStore) ListPaymentEntries(ctx context.Context, paymentID int64) ([]*Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, account_id, payment_id, entry_type, amount, balance, created_at
		FROM ledger_entries WHERE payment_id = $1
		ORDER BY id ASC
	`, paymentID)
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.PaymentID, &e.Type, &e.Amount, &e.Balance, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
