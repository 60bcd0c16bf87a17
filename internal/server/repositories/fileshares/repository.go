package fileshares

import (
	"context"
	"time"

	"github.com/psemenov/filebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error)
	GetByID(ctx context.Context, id string) (*models.FileShare, error)

	// GetByToken returns the active share matching token, if any. Expiry is
	// not filtered here; validators evaluate it at access time.
	GetByToken(ctx context.Context, token string) (*models.FileShare, error)

	// FindForUser returns an active share of fileID naming userID as target.
	FindForUser(ctx context.Context, fileID, userID string) (*models.FileShare, error)

	Deactivate(ctx context.Context, id string) error

	// DeactivateExpired flips is_active on shares whose expiry has passed.
	// Idempotent; safe to run concurrently with foreground traffic.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
