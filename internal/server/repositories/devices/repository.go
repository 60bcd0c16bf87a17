package devices

import (
	"context"

	"github.com/psemenov/filebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, device *models.Device) (*models.Device, error)
	GetByDeviceID(ctx context.Context, userID, deviceID string) (*models.Device, error)
	ListActive(ctx context.Context, userID string) ([]*models.Device, error)
	TouchLastSync(ctx context.Context, userID, deviceID string) error
}
