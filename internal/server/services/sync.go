package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/psemenov/filebox/internal/server/models"
	"github.com/psemenov/filebox/internal/server/repositories/repomanager"
	"github.com/psemenov/filebox/internal/server/repositories/syncevents"
)

// maxFetchLimit caps how many events one fetch may return. Callers asking
// for more, or for a non-positive amount, get the cap.
const maxFetchLimit = 500

// SyncService reads the per-user change log. Events are appended by
// FileService inside its mutation transactions; this side only fetches,
// acknowledges, and reports.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager) *SyncService {
	return &SyncService{db: db, repomanager: m}
}

// SyncStatus summarizes a user's sync state.
type SyncStatus struct {
	UnprocessedEvents int64
	EventsLast24h     int64
	ActiveDevices     int
	StorageUsed       int64
	StorageQuota      int64
}

// FetchSince returns the user's events strictly after since (all events when
// since is nil), excluding those originated by excludeDeviceID so a device
// never sees the echo of its own writes.
func (s *SyncService) FetchSince(ctx context.Context, userID string, since *time.Time,
	excludeDeviceID string, limit int, order syncevents.Order) ([]*models.SyncEvent, error) {

	if limit <= 0 || limit > maxFetchLimit {
		limit = maxFetchLimit
	}
	return s.repomanager.SyncEvents(s.db).SelectSince(ctx, userID, since, excludeDeviceID, limit, order)
}

// MarkProcessed acknowledges one event. Idempotent: repeated calls after the
// first are no-ops. The bool reports whether the event exists for that user.
func (s *SyncService) MarkProcessed(ctx context.Context, eventID int64, userID string) (bool, error) {
	return s.repomanager.SyncEvents(s.db).MarkProcessed(ctx, eventID, userID)
}

// Status reports how much the user's devices have left to catch up on.
func (s *SyncService) Status(ctx context.Context, userID string) (*SyncStatus, error) {
	events := s.repomanager.SyncEvents(s.db)

	unprocessed, err := events.CountUnprocessed(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := events.CountSince(ctx, userID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	devices, err := s.repomanager.Devices(s.db).ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SyncStatus{
		UnprocessedEvents: unprocessed,
		EventsLast24h:     recent,
		ActiveDevices:     len(devices),
		StorageUsed:       user.StorageUsed,
		StorageQuota:      user.StorageQuota,
	}, nil
}

// Ping records a device's sync heartbeat.
func (s *SyncService) Ping(ctx context.Context, userID, deviceID string) error {
	if err := s.repomanager.Devices(s.db).TouchLastSync(ctx, userID, deviceID); err != nil {
		return fmt.Errorf("error updating device: %w", err)
	}
	return nil
}
