package errors

import (
	"errors"
	"fmt"
)

// Common error types for the CivilsHQ client
var (
	// Validation errors (client-side, never sent to the server)
	ErrValidation     = errors.New("validation failed")
	ErrMissingField   = fmt.Errorf("required field missing: %w", ErrValidation)
	ErrMalformedEmail = fmt.Errorf("malformed email address: %w", ErrValidation)

	// Authentication errors
	ErrAuthentication     = errors.New("authentication failed")
	ErrSessionExpired     = fmt.Errorf("session expired: %w", ErrAuthentication)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrAuthentication)

	// Authorization errors
	ErrAuthorization = errors.New("role not permitted for destination")

	// Verification errors
	ErrVerificationRequired = errors.New("email verification required")
	ErrInvalidOTPCode       = errors.New("invalid verification code")
	ErrResendCooldown       = errors.New("verification code resend on cooldown")

	// Account state errors
	ErrAccountState       = errors.New("account state prevents login")
	ErrAccountDeactivated = fmt.Errorf("account is deactivated: %w", ErrAccountState)

	// Transport errors
	ErrConnectivity = errors.New("no response from server")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
