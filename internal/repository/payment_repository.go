package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/akylbek/safari-buddy/internal/models"
)

const paymentColumns = `id, booking_id, amount, payment_method, payment_status, checkout_request_id,
	merchant_request_id, mpesa_receipt_number, amount_paid, phone_number, payment_details, idempotency_key,
	created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.CheckoutRequestID,
		&p.MerchantRequestID, &p.ReceiptNumber, &p.AmountPaid, &p.PhoneNumber, &p.Details, &p.IdempotencyKey,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (booking_id, amount, payment_method, payment_status, phone_number, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, payment.BookingID, payment.Amount, payment.Method, payment.Status,
		payment.PhoneNumber, payment.IdempotencyKey).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	return mapError(err)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *PaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id = $1`, checkoutRequestID))
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key))
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC, id DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) AttachProviderIDs(ctx context.Context, id int64, merchantRequestID, checkoutRequestID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET merchant_request_id = $1, checkout_request_id = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status = 'pending'
	`, merchantRequestID, checkoutRequestID, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, details string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET payment_status = 'failed', payment_details = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = 'pending'
	`, details, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *PaymentRepository) ApplyOutcome(ctx context.Context, checkoutRequestID string, outcome models.PaymentOutcome) (*models.Payment, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	payment, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id = $1 FOR UPDATE`, checkoutRequestID))
	if err != nil {
		return nil, false, err
	}

	var receipt, details *string
	if outcome.ReceiptNumber != "" {
		receipt = &outcome.ReceiptNumber
	}
	if outcome.Details != "" {
		details = &outcome.Details
	}

	// Final states never move again; a repeated callback lands here. A
	// payment completed by a status query still adopts the receipt from the
	// callback that follows it.
	if !models.CanTransition(payment.Status, outcome.Status) {
		if !outcome.FillsReceipt(payment) {
			return payment, false, nil
		}
		if err := updatePaymentOutcome(ctx, tx, payment, payment.Status, receipt, outcome.AmountPaid, details); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		applyToPayment(payment, payment.Status, receipt, outcome.AmountPaid, details)
		return payment, false, nil
	}

	if err := updatePaymentOutcome(ctx, tx, payment, outcome.Status, receipt, outcome.AmountPaid, details); err != nil {
		return nil, false, err
	}

	if outcome.Status == models.PaymentCompleted {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings SET booking_status = 'confirmed', updated_at = NOW()
			WHERE id = $1 AND booking_status = 'pending'
		`, payment.BookingID); err != nil {
			return nil, false, fmt.Errorf("confirm booking %d: %w", payment.BookingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	applyToPayment(payment, outcome.Status, receipt, outcome.AmountPaid, details)
	return payment, true, nil
}

func updatePaymentOutcome(ctx context.Context, tx *sql.Tx, payment *models.Payment, status models.PaymentStatus,
	receipt *string, amountPaid decimal.NullDecimal, details *string) error {
	err := tx.QueryRowContext(ctx, `
		UPDATE payments
		SET payment_status = $1,
			mpesa_receipt_number = COALESCE($2, mpesa_receipt_number),
			amount_paid = COALESCE($3, amount_paid),
			payment_details = COALESCE($4, payment_details),
			updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, status, receipt, amountPaid, details, payment.ID).Scan(&payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	return nil
}

func applyToPayment(p *models.Payment, status models.PaymentStatus, receipt *string, amountPaid decimal.NullDecimal, details *string) {
	p.Status = status
	if receipt != nil {
		p.ReceiptNumber = receipt
	}
	if amountPaid.Valid {
		p.AmountPaid = amountPaid
	}
	if details != nil {
		p.Details = details
	}
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
