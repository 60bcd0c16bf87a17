package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/models"
)

const fileColumns = `id, user_id, filename, original_filename, storage_pointer,
		digest, file_size, mime_type, version, is_deleted, created_at, updated_at`

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanFile(row interface{ Scan(dest ...any) error }) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.OriginalName, &f.StoragePointer,
		&f.Digest, &f.Size, &f.MimeType, &f.Version, &f.IsDeleted, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (user_id, filename, original_filename, storage_pointer,
			digest, file_size, mime_type, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.Name, file.OriginalName, file.StoragePointer,
		file.Digest, file.Size, file.MimeType, file.Version).
		Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) FindByDigest(ctx context.Context, userID, digest string) (*models.File, error) {
	query := `
		SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND digest = $2 AND NOT is_deleted
		LIMIT 1
	`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, userID, digest))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) UpdateCurrent(ctx context.Context, id, pointer, digest string, size, version int64) error {
	query := `
		UPDATE files
		SET storage_pointer = $2, digest = $3, file_size = $4, version = $5, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, pointer, digest, size, version)
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id, name, originalName string) error {
	query := `
		UPDATE files SET filename = $2, original_filename = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, name, originalName)
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `UPDATE files SET is_deleted = TRUE, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) SelectOwnedActive(ctx context.Context, ids []string, userID string) ([]*models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := `
		SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND NOT is_deleted AND id IN (` + strings.Join(placeholders, ", ") + `)
	`
	return r.queryFiles(ctx, query, args...)
}

func (r *PostgresRepository) List(ctx context.Context, userID, search string, limit, offset int) ([]*models.File, error) {
	query := `
		SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND NOT is_deleted
		  AND ($2 = '' OR original_filename ILIKE '%' || $2 || '%')
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.queryFiles(ctx, query, userID, search, limit, offset)
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, userID string) (*models.FileStats, error) {
	query := `
		SELECT COUNT(f.id), COALESCE(SUM(f.file_size), 0), u.storage_used, u.storage_quota
		FROM users u
		LEFT JOIN files f ON f.user_id = u.id AND NOT f.is_deleted
		WHERE u.id = $1
		GROUP BY u.storage_used, u.storage_quota
	`
	stats := &models.FileStats{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.TotalFiles, &stats.TotalSize, &stats.StorageUsed, &stats.StorageQuota)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stats.StorageQuota > 0 {
		stats.StoragePercentage = float64(stats.StorageUsed) / float64(stats.StorageQuota) * 100
	}
	return stats, nil
}

func (r *PostgresRepository) SelectPruneCandidates(ctx context.Context, keep, limit int) ([]string, error) {
	query := `
		SELECT file_id FROM file_versions
		GROUP BY file_id
		HAVING COUNT(*) > $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, keep, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select prune candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
