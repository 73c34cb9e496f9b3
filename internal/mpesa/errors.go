package mpesa

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailure       = errors.New("mpesa: access token request failed")
	ErrTransportFailure  = errors.New("mpesa: provider request failed")
	ErrInvalidPhone      = errors.New("mpesa: invalid phone number")
	ErrInvalidAmount     = errors.New("mpesa: amount must be at least 1 KES")
	ErrMalformedCallback = errors.New("mpesa: malformed callback")
)

// ProviderError is a non-200 answer from the Daraja API.
type ProviderError struct {
	Operation    string
	StatusCode   int
	ErrorCode    string
	ErrorMessage string
	Body         []byte
}

func (e *ProviderError) Error() string {
	if e.ErrorMessage != "" {
		return fmt.Sprintf("mpesa %s: status %d: %s", e.Operation, e.StatusCode, e.ErrorMessage)
	}
	return fmt.Sprintf("mpesa %s: status %d", e.Operation, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return ErrTransportFailure }
