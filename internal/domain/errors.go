package domain

import "errors"

var (
	// ErrAlreadyPaid is returned when settling an invoice that is already PAID.
	ErrAlreadyPaid = errors.New("invoice is already paid")
	// ErrAlreadyCancelled is returned for payment or cancellation attempts
	// against a CANCELLED invoice.
	ErrAlreadyCancelled = errors.New("invoice is already cancelled")
)
