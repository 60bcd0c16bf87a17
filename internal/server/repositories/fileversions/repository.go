package fileversions

import (
	"context"

	"github.com/psemenov/filebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, version *models.FileVersion) (*models.FileVersion, error)
	GetByNumber(ctx context.Context, fileID string, number int64) (*models.FileVersion, error)

	// FindByDigest checks whether this file already has a version with the
	// given content digest (the idempotent-update check; per-file only).
	FindByDigest(ctx context.Context, fileID, digest string) (*models.FileVersion, error)

	// ListByFile returns all versions, newest first.
	ListByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error)

	Delete(ctx context.Context, id string) error
}
