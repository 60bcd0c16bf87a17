package fileversions

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

func (r *PostgresRepository) Create(ctx context.Context, version *models.FileVersion) (*models.FileVersion, error) {
	query := `
		INSERT INTO file_versions (file_id, version_number, storage_pointer, digest, file_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		version.FileID, version.VersionNumber, version.StoragePointer,
		version.Digest, version.Size).
		Scan(&version.ID, &version.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, fileID string, number int64) (*models.FileVersion, error) {
	query := `
		SELECT id, file_id, version_number, storage_pointer, digest, file_size, created_at
		FROM file_versions
		WHERE file_id = $1 AND version_number = $2
	`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, fileID, number))
}

func (r *PostgresRepository) FindByDigest(ctx context.Context, fileID, digest string) (*models.FileVersion, error) {
	query := `
		SELECT id, file_id, version_number, storage_pointer, digest, file_size, created_at
		FROM file_versions
		WHERE file_id = $1 AND digest = $2
		ORDER BY version_number DESC
		LIMIT 1
	`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, fileID, digest))
}

func (r *PostgresRepository) scanVersion(row *sql.Row) (*models.FileVersion, error) {
	v := &models.FileVersion{}
	err := row.Scan(&v.ID, &v.FileID, &v.VersionNumber, &v.StoragePointer,
		&v.Digest, &v.Size, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	query := `
		SELECT id, file_id, version_number, storage_pointer, digest, file_size, created_at
		FROM file_versions
		WHERE file_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	var result []*models.FileVersion
	for rows.Next() {
		var item models.FileVersion
		if err := rows.Scan(&item.ID, &item.FileID, &item.VersionNumber,
			&item.StoragePointer, &item.Digest, &item.Size, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM file_versions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
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
