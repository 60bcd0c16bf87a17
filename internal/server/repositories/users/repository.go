package users

import (
	"context"

	"github.com/psemenov/filebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error

	// AdjustStorageUsed applies a signed delta to the user's quota ledger,
	// clamped at zero, and returns the new value.
	AdjustStorageUsed(ctx context.Context, id string, delta int64) (int64, error)
}
