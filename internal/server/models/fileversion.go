package models

import "time"

// FileVersion is an immutable snapshot of a file's content at one version
// number. Version numbers are unique per file and strictly increasing. Each
// version has its own blob pointer, so versions can be pruned independently.
type FileVersion struct {
	ID             string
	FileID         string
	VersionNumber  int64
	StoragePointer string
	Digest         string
	Size           int64
	CreatedAt      time.Time
}
