package models

import "time"

// Device is one of a user's sync clients. DeviceID is the client-supplied
// identifier carried on mutations and used for echo suppression.
type Device struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	DeviceID  string
	LastSync  time.Time
	IsActive  bool
	CreatedAt time.Time
}
