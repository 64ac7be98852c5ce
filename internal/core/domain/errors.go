package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrPaymentIncomplete = errors.New("payment is not completed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUpstream          = errors.New("upstream service failed")
)

// A ValidationError describes a rejected input field.
//
// It matches [ErrValidation] with [errors.Is].
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}
