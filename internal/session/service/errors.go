package service

import (
	"errors"
	"fmt"

	"session-auth/backend/internal/platform/validate"
)

// Sentinel errors for the session service; the HTTP handler maps them to status codes.
var (
	// ErrConflict is returned by Signup when the email is already registered.
	ErrConflict = errors.New("user already exists")
	// ErrAuthentication covers bad credentials and every invalid, expired, rotated or revoked
	// token. Its message is deliberately generic.
	ErrAuthentication = errors.New("unauthorized")
	// ErrMissingToken is returned by Refresh when no refresh token was presented.
	ErrMissingToken = errors.New("missing refresh token")
	// ErrUserNotFound is returned by Refresh when a correctly signed token names a user that no
	// longer exists. It matches ErrAuthentication under errors.Is.
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrAuthentication)
	// ErrStoreUnavailable wraps any user store failure (timeout, outage).
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// ValidationError reports every failing input rule by field.
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// newValidationError converts a validate error into a *ValidationError.
func newValidationError(err error) error {
	var fields validate.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{Fields: validate.Errors{"": {err.Error()}}}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// reason classifies err for metrics and session events.
func reason(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
