package service

import (
	"errors"
	"fmt"
)

// Domain errors.  Handlers map them to HTTP statuses; anything else is a 500.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotAuthenticated  = errors.New("authentication required")
	ErrForbidden         = errors.New("forbidden")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrPurchaseRequired  = errors.New("only customers with a confirmed order for this product can review it")
	ErrDuplicateReview   = errors.New("you have already reviewed this product")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrEmptyCart         = errors.New("cart is empty")
)

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

// ValidationError returns an error that matches ErrValidation and whose
// message is shown to the client as is.
func ValidationError(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func transitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
