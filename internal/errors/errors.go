package errors

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the zkLogin flow
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Provider and protocol errors
	ErrMissingCallbackParams = errors.New("missing callback parameters")
	ErrNoPendingLogin        = errors.New("no pending login found")
	ErrUnsupportedProvider   = errors.New("unsupported provider")

	// Exchange and backend errors
	ErrCodeExchange         = errors.New("code exchange failed")
	ErrMissingIdentityToken = errors.New("no identity token returned")
	ErrBackend              = errors.New("backend request failed")

	// Token and derivation errors
	ErrInvalidClaims = errors.New("invalid identity token claims")
	ErrInvalidSalt   = errors.New("invalid salt")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrSessionInvalid = errors.New("session is invalid")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
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
