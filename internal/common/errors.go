// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("invalid email or password")

	// Validation errors. ErrorValidation is wrapped with the offending field,
	// e.g. fmt.Errorf("%w: email is required", ErrorValidation).
	ErrorValidation          = errors.New("validation error")
	ErrorDuplicateUser       = errors.New("user already exists")
	ErrorNoValidTransactions = errors.New("no valid transactions found in the provided data")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
