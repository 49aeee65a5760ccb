package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("session expired, please sign in again")
	ErrOutOfStock        = errors.New("requested quantity exceeds available stock")
	ErrDuplicateCustomer = errors.New("phone or email already registered")
	ErrInactivePromotion = errors.New("promotion is no longer active")
	ErrOrderNotDraft     = errors.New("order is not in a draft state")
	ErrNoOrder           = errors.New("no draft order bound to this session")
	ErrUnavailable       = errors.New("service unavailable, try again")
)

// ValidationError is a client-side, pre-flight rejection. It blocks a
// transition locally; no network call is issued for it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Retryable reports whether the failure is transient and the same call may
// simply be retried, as opposed to one needing user correction or re-auth.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
