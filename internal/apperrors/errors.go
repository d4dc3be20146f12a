// Package apperrors defines the error kinds shared by the stores, services and
// HTTP handlers. Callers classify errors with errors.Is against the sentinels.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed input rejected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failed data-store operation. It is never retried.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnauthorized marks a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

// Persistence wraps ErrPersistence around the store error, keeping both in the chain.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
