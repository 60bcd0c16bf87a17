// Package common defines shared constants and sentinel errors used across
// filebox components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAccessDenied = errors.New("access denied")

	// Storage errors.
	//
	// ErrStorageCorruption means a blob pointer that should resolve does not:
	// metadata references bytes the blob store no longer has. It is surfaced
	// separately from ErrNotFound so operators can tell "never existed" from
	// "should exist but doesn't".
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrStorageCorruption = errors.New("storage corruption: blob missing")
	ErrVersionNotFound   = errors.New("version not found")

	// Share errors (unknown, revoked, or expired token).
	ErrInvalidShareToken = errors.New("invalid share token")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
