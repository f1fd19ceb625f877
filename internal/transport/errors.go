package transport

import (
	"fmt"

	apperrors "github.com/entrastudio/token-studio/internal/errors"
)

// Kind classifies a transport failure.
type Kind string

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport Kind = "transport"

	// KindEnvironment marks operations invoked in a mode that does not
	// support them. Non-retryable.
	KindEnvironment Kind = "environment"

	// KindValidation covers input rejected by server-side checks.
	KindValidation Kind = "validation"
)

// Error is the single tagged error type constructed at the transport
// boundary. Both implementations normalize failures into this shape so
// callers never see transport-specific error values.
type Error struct {
	Kind          Kind
	Message       string
	Code          string
	Details       string
	SetupRequired bool

	// Err carries a sentinel for errors.Is matching, when one applies.
	Err error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// notAvailable builds the environment-mismatch error for native-only
// operations invoked outside the native shell.
func notAvailable(op string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: fmt.Sprintf("%s is only available in the native desktop runtime", op),
		Code:    "native_only",
		Err:     apperrors.ErrNativeOnly,
	}
}
