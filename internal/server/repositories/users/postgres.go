package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, storage_quota)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash, user.StorageQuota).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.IsActive = true
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_active,
		       storage_quota, storage_used, created_at, last_login
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_active,
		       storage_quota, storage_used, created_at, last_login
		FROM users
		WHERE username = $1 OR email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, usernameOrEmail))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash,
		&user.IsActive, &user.StorageQuota, &user.StorageUsed, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AdjustStorageUsed clamps at zero so a concurrent double-decrement can never
// drive the ledger negative.
func (r *PostgresRepository) AdjustStorageUsed(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE users SET storage_used = GREATEST(storage_used + $2, 0)
		WHERE id = $1
		RETURNING storage_used
	`
	var used int64
	err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return used, nil
}
