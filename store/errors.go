package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist.
	ErrNotFound = errors.New("ontology: item not found")

	// ErrConditionFailed is returned when a conditional write loses its
	// compare-and-swap check.
	ErrConditionFailed = errors.New("ontology: conditional write failed")

	// ErrTimeout is returned when a store call exceeded the caller's deadline.
	ErrTimeout = errors.New("ontology: store call timed out")

	// ErrUnavailable is returned when the store itself failed. It marks
	// infrastructure failure as opposed to domain validation failure.
	ErrUnavailable = errors.New("ontology: store unavailable")

	// ErrBadToken is returned when a pagination token cannot be decoded.
	ErrBadToken = errors.New("ontology: malformed pagination token")
)
