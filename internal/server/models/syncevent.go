package models

import "time"

// Sync event kinds.
const (
	EventUpload  = "upload"
	EventUpdate  = "update"
	EventDelete  = "delete"
	EventRename  = "rename"
	EventRestore = "restore"
)

// SyncEvent is one entry of the append-only per-user change log. Events are
// ordered by creation time, ties broken by the auto-incrementing ID. Only
// the Processed flag is ever mutated after insert.
type SyncEvent struct {
	ID        int64
	UserID    string
	FileID    *string
	Kind      string
	Payload   []byte
	DeviceID  string
	Processed bool
	CreatedAt time.Time
}
