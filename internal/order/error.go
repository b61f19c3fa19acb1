package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation error")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not active")
)

// InvalidTransitionError names both states of an illegal transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError is malformed input caught before any transaction opens.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
