package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional status write found the booking in a
	// different status than expected.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrBindingChanged = errors.New("booking slot binding changed concurrently")

	// ErrDuplicate means a write hit a unique index: the user already holds a
	// live booking on the slot, or the slot already has a confirmed booking.
	ErrDuplicate = errors.New("booking conflicts with an existing booking")
)
