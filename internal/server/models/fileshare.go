package models

import "time"

// Share permission levels.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// FileShare grants access to a file via an unguessable bearer token.
// TargetUserID is nil for public links. Revoked shares are deactivated, not
// deleted; expiry is evaluated at validation time.
type FileShare struct {
	ID           string
	FileID       string
	TargetUserID *string
	Token        string
	Permission   string
	ExpiresAt    *time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// Expired reports whether the share's expiry, if any, has passed.
func (s *FileShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
