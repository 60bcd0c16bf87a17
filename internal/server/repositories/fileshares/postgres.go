package fileshares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const shareColumns = `id, file_id, target_user_id, share_token, permission, expires_at, is_active, created_at`

func (r *PostgresRepository) Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error) {
	query := `
		INSERT INTO file_shares (file_id, target_user_id, share_token, permission, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	var target sql.NullString
	if share.TargetUserID != nil {
		target = sql.NullString{String: *share.TargetUserID, Valid: true}
	}
	var expires sql.NullTime
	if share.ExpiresAt != nil {
		expires = sql.NullTime{Time: *share.ExpiresAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		share.FileID, target, share.Token, share.Permission, expires).
		Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	share.IsActive = true
	return share, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileShare, error) {
	query := `SELECT ` + shareColumns + ` FROM file_shares WHERE id = $1`
	return r.scanShare(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.FileShare, error) {
	query := `SELECT ` + shareColumns + ` FROM file_shares WHERE share_token = $1 AND is_active`
	return r.scanShare(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) FindForUser(ctx context.Context, fileID, userID string) (*models.FileShare, error) {
	query := `
		SELECT ` + shareColumns + ` FROM file_shares
		WHERE file_id = $1 AND target_user_id = $2 AND is_active
		LIMIT 1
	`
	return r.scanShare(r.db.QueryRowContext(ctx, query, fileID, userID))
}

func (r *PostgresRepository) scanShare(row *sql.Row) (*models.FileShare, error) {
	share := &models.FileShare{}
	var target sql.NullString
	var expires sql.NullTime
	err := row.Scan(&share.ID, &share.FileID, &target, &share.Token,
		&share.Permission, &expires, &share.IsActive, &share.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if target.Valid {
		share.TargetUserID = &target.String
	}
	if expires.Valid {
		share.ExpiresAt = &expires.Time
	}
	return share, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE file_shares SET is_active = FALSE WHERE id = $1`
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

func (r *PostgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE file_shares SET is_active = FALSE WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
