// Package apperr holds the error kinds shared by the service layers.
// Callers wrap them with fmt.Errorf("...: %w", err) and the HTTP layer
// matches them with errors.Is.
package apperr

import "errors"

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrNotFound           = errors.New("resource not found")
	ErrStorageCorruption  = errors.New("stored object missing or unreadable")
	ErrConflict           = errors.New("resource already exists")
	ErrValidation         = errors.New("validation failed")
)
