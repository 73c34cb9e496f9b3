package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrTourInactive     = errors.New("tour is not active")
	ErrCapacityExceeded = errors.New("tour capacity exceeded")
	// ErrInvalidState is returned when a row's current status forbids the update.
	ErrInvalidState = errors.New("invalid state for operation")
)

const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
