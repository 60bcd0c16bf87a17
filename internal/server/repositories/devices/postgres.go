package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, device *models.Device) (*models.Device, error) {
	query := `
		INSERT INTO devices (user_id, device_name, device_type, device_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, last_sync, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		device.UserID, device.Name, device.Type, device.DeviceID).
		Scan(&device.ID, &device.LastSync, &device.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	device.IsActive = true
	return device, nil
}

func (r *PostgresRepository) GetByDeviceID(ctx context.Context, userID, deviceID string) (*models.Device, error) {
	query := `
		SELECT id, user_id, device_name, device_type, device_id, last_sync, is_active, created_at
		FROM devices
		WHERE user_id = $1 AND device_id = $2
	`
	device := &models.Device{}
	err := r.db.QueryRowContext(ctx, query, userID, deviceID).
		Scan(&device.ID, &device.UserID, &device.Name, &device.Type,
			&device.DeviceID, &device.LastSync, &device.IsActive, &device.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return device, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT id, user_id, device_name, device_type, device_id, last_sync, is_active, created_at
		FROM devices
		WHERE user_id = $1 AND is_active
		ORDER BY last_sync DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select devices: %w", err)
	}
	defer rows.Close()

	var result []*models.Device
	for rows.Next() {
		var item models.Device
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Type,
			&item.DeviceID, &item.LastSync, &item.IsActive, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) TouchLastSync(ctx context.Context, userID, deviceID string) error {
	query := `UPDATE devices SET last_sync = now() WHERE user_id = $1 AND device_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, deviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
