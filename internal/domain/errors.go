package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrWalletRequired   = errors.New("wallet address required")
	ErrInsufficientTier = errors.New("insufficient token tier")
	ErrQuotaExceeded    = errors.New("daily quota exceeded")
	ErrProviderFailure  = errors.New("provider failure")
)

// GateError describes an access failure with the fields clients need to
// render upgrade or retry prompts.
type GateError struct {
	Err        error
	Message    string
	Tier       string
	Balance    string
	Usage      int
	DailyLimit int
	RetryAfter time.Duration
}

func (e *GateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *GateError) Unwrap() error { return e.Err }

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
