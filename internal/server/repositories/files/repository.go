package files

import (
	"context"

	"github.com/psemenov/filebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)

	// FindByDigest looks up a user's non-deleted file with the given content
	// digest. This is the dedup index: matching is per-user, never global.
	FindByDigest(ctx context.Context, userID, digest string) (*models.File, error)

	// UpdateCurrent rewrites the file's current pointer, digest, size, and
	// version to mirror its latest version.
	UpdateCurrent(ctx context.Context, id, pointer, digest string, size, version int64) error

	UpdateName(ctx context.Context, id, name, originalName string) error
	MarkDeleted(ctx context.Context, id string) error

	// SelectOwnedActive returns the subset of ids owned by userID and not
	// yet deleted.
	SelectOwnedActive(ctx context.Context, ids []string, userID string) ([]*models.File, error)

	List(ctx context.Context, userID, search string, limit, offset int) ([]*models.File, error)
	Stats(ctx context.Context, userID string) (*models.FileStats, error)

	// SelectPruneCandidates returns IDs of files holding more than keep
	// versions.
	SelectPruneCandidates(ctx context.Context, keep, limit int) ([]string, error)
}
