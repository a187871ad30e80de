// Package common defines shared constants and sentinel errors used across
// the collector service. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Login failures that are reported as unauthenticated.
	ErrNoPasswordSet = fmt.Errorf("%w: no password configured", ErrUnauthenticated)
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrUnauthenticated)

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Settlement errors.
	ErrNothingToBatch = errors.New("nothing to batch")
)
