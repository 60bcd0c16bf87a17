// Package models defines server-side data models persisted in the database.
package models

import "time"

// User owns files, devices, and sync events. StorageUsed is maintained as an
// invariant: it always equals the sum of current sizes over the user's
// non-deleted files, and never goes negative.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	IsActive     bool
	StorageQuota int64
	StorageUsed  int64
	CreatedAt    time.Time
	LastLogin    *time.Time
}
