package syncevents

import (
	"context"
	"time"

	"github.com/psemenov/filebox/internal/server/models"
)

// Order controls the sort direction of fetched events. Polling endpoints
// read newest-first; realtime catch-up delivery reads oldest-first.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

type Repository interface {
	// Create appends an event. Pure insert: no dedup, no payload validation.
	Create(ctx context.Context, event *models.SyncEvent) (*models.SyncEvent, error)

	// SelectSince returns the user's events strictly after since (all events
	// when since is nil), excluding those originated by excludeDeviceID when
	// non-empty.
	SelectSince(ctx context.Context, userID string, since *time.Time, excludeDeviceID string, limit int, order Order) ([]*models.SyncEvent, error)

	// MarkProcessed flips the processed flag. Idempotent: the bool reports
	// whether the event exists for that user, not whether the flag changed.
	MarkProcessed(ctx context.Context, eventID int64, userID string) (bool, error)

	CountUnprocessed(ctx context.Context, userID string) (int64, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}
