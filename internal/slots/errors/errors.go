package errors

import "errors"

var (
	ErrNotFound = errors.New("room slot not found")

	ErrInvalidID = errors.New("invalid room slot ID format")

	ErrUnavailable = errors.New("room slot is not available")

	ErrClaimed = errors.New("room slot is held by a confirmed booking")
)
