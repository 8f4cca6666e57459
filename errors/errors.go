package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = fmt.Errorf("authentication failed")
	ErrNotFound             = fmt.Errorf("not found")
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrInvalidPayload       = fmt.Errorf("invalid payload")
	ErrPermissionDenied     = fmt.Errorf("permission denied")
	ErrPersistenceFailure   = fmt.Errorf("persistence failure")
	ErrDeliveryUnavailable  = fmt.Errorf("delivery unavailable")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrChannelClosed = fmt.Errorf("delivery channel closed: %w", ErrDeliveryUnavailable)
	ErrChannelFull   = fmt.Errorf("delivery channel full: %w", ErrDeliveryUnavailable)
	ErrRateLimited   = fmt.Errorf("rate limited")
)

// Kind names the taxonomy entry of err as exposed to clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrInvalidCredentials):
		return "AuthenticationFailed"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidPassword):
		return "InvalidPayload"
	case errors.Is(err, ErrPermissionDenied):
		return "PermissionDenied"
	case errors.Is(err, ErrUserAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrRateLimited):
		return "RateLimited"
	case errors.Is(err, ErrPersistenceFailure):
		return "PersistenceFailure"
	default:
		return "Internal"
	}
}

// Is and As re-export the standard helpers so callers importing this package
// under the name "errors" keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
