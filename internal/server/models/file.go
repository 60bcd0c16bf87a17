package models

import "time"

// File is the current state of a logical file. Its pointer, digest, size and
// version always mirror the latest FileVersion; Version increments only on
// distinct content transitions.
type File struct {
	ID             string
	UserID         string
	Name           string
	OriginalName   string
	StoragePointer string
	Digest         string
	Size           int64
	MimeType       string
	Version        int64
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FileStats aggregates a user's storage usage.
type FileStats struct {
	TotalFiles        int64
	TotalSize         int64
	StorageUsed       int64
	StorageQuota      int64
	StoragePercentage float64
}
