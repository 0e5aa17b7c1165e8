// Package common defines shared constants and sentinel errors used across
// the gophauth server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Account process faults. These are programming errors, never domain outcomes.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrBadRequestType       = errors.New("bad request type")
	ErrUnknownAction        = errors.New("unknown lifecycle action")

	// Unique column violations on account creation.
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")

	// Confirmation token issuing.
	ErrNoIdentity = errors.New("no identity")

	// Notifier input errors.
	ErrInvalidMail = errors.New("invalid mail")
)
