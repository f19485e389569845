// Package apperr defines the error taxonomy shared by the core and the transports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrStoreFailure    = errors.New("store failure")
)

// Invalid returns an ErrInvalidInput carrying a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Forbidden returns an ErrForbidden carrying a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Store wraps a persistence error as ErrStoreFailure. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}

// Kind returns the taxonomy sentinel err belongs to, or nil when err is
// outside the taxonomy.
func Kind(err error) error {
	for _, k := range []error{ErrUnauthenticated, ErrSessionExpired, ErrForbidden, ErrInvalidInput, ErrNotFound, ErrStoreFailure} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
