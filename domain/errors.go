package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store error")
	ErrOutOfRange = errors.New("out of range")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// StoreError wraps a backend failure so that callers can match both
// ErrStore and the underlying cause.
func StoreError(op, path string, cause error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStore, op, path, cause)
}

// StatusCode maps an error to the HTTP status reported to clients.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
