package syncevents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/models"
)

// PostgresRepository implements the append-only sync event log. The id column
// is a bigserial, so within equal timestamps insertion order is the total
// order.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.SyncEvent) (*models.SyncEvent, error) {
	query := `
		INSERT INTO sync_events (user_id, file_id, event_type, event_data, device_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at
	`
	var fileID sql.NullString
	if event.FileID != nil {
		fileID = sql.NullString{String: *event.FileID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		event.UserID, fileID, event.Kind, event.Payload, event.DeviceID).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) SelectSince(ctx context.Context, userID string, since *time.Time, excludeDeviceID string, limit int, order Order) ([]*models.SyncEvent, error) {
	direction := "DESC"
	if order == OldestFirst {
		direction = "ASC"
	}

	// device_id IS DISTINCT FROM: events with no originating device must
	// survive the echo-suppression filter.
	query := fmt.Sprintf(`
		SELECT id, user_id, file_id, event_type, event_data, device_id, processed, created_at
		FROM sync_events
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR created_at > $2)
		  AND ($3 = '' OR device_id IS DISTINCT FROM $3)
		ORDER BY created_at %s, id %s
		LIMIT $4
	`, direction, direction)

	var sinceArg sql.NullTime
	if since != nil {
		sinceArg = sql.NullTime{Time: *since, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, userID, sinceArg, excludeDeviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncEvent
	for rows.Next() {
		var item models.SyncEvent
		var fileID, deviceID sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &fileID, &item.Kind,
			&item.Payload, &deviceID, &item.Processed, &item.CreatedAt); err != nil {
			return nil, err
		}
		if fileID.Valid {
			item.FileID = &fileID.String
		}
		item.DeviceID = deviceID.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, eventID int64, userID string) (bool, error) {
	query := `UPDATE sync_events SET processed = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) CountUnprocessed(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM sync_events WHERE user_id = $1 AND NOT processed`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM sync_events WHERE user_id = $1 AND created_at > $2`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
