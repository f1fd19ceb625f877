package errors

import "errors"

// Client errors.
var (
	ErrAppNotFound      = errors.New("app registration not found")
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrPinLimit         = errors.New("pin limit reached")
	ErrNotConfigured    = errors.New("credentials not configured")
)

// Runtime errors.
var (
	ErrNativeOnly = errors.New("operation requires the native runtime")
)
