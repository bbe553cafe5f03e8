package entities

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountBanned        = errors.New("account is banned")
	ErrSessionNotFound      = errors.New("crash session not found")
	ErrSessionAlreadyClosed = errors.New("crash session already closed")
	ErrInternalGenerator    = errors.New("outcome generator misconfigured")
	ErrDuplicateSettlement  = errors.New("settlement reference already recorded")
)

// ValidationError rejects a request before any state is touched
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
