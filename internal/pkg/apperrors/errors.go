package apperrors

import "errors"

// Standard application errors
var (
	// ErrInvalidInput is returned when an endpoint, tag or argument cannot be used as given.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure is returned when an interaction with an upstream node fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout is returned when an upstream call exceeds its read timeout.
	ErrTimeout = errors.New("operation timed out")

	// ErrInternal is returned for unexpected internal failures, such as a recovered panic in a worker.
	ErrInternal = errors.New("internal system error")
)
