package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/logging"
	"github.com/psemenov/filebox/internal/server/models"
	"github.com/psemenov/filebox/internal/server/repositories/repomanager"
	"github.com/psemenov/filebox/internal/shared"
)

// ShareService issues and validates capability tokens granting access to
// files. Tokens carry 256 bits of entropy. Revoked shares are deactivated,
// never hard-deleted; expiry is evaluated at validation time, not by the
// background reaper.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ShareService {
	return &ShareService{db: db, repomanager: m, logger: logger}
}

// generateShareToken builds a bearer token from two independent 128-bit
// random blocks.
func generateShareToken() (string, error) {
	a, err := shared.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	b, err := shared.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return a + b, nil
}

func validPermission(p string) bool {
	switch p {
	case models.PermissionRead, models.PermissionWrite, models.PermissionAdmin:
		return true
	}
	return false
}

// Create issues a share of fileID owned by userID. targetUserID is nil for a
// public link. When expiresInDays is nil the share never expires.
func (s *ShareService) Create(ctx context.Context, userID, fileID string, targetUserID *string,
	permission string, expiresInDays *int) (*models.FileShare, error) {

	if !validPermission(permission) {
		return nil, fmt.Errorf("invalid permission %q", permission)
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != userID {
		return nil, common.ErrAccessDenied
	}
	if file.IsDeleted {
		return nil, common.ErrNotFound
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, common.ErrInternal
	}

	var expiresAt *time.Time
	if expiresInDays != nil {
		t := time.Now().Add(time.Duration(*expiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	share, err := s.repomanager.FileShares(s.db).Create(ctx, &models.FileShare{
		FileID:       fileID,
		TargetUserID: targetUserID,
		Token:        token,
		Permission:   permission,
		ExpiresAt:    expiresAt,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating share: %v", err)
	}
	return share, nil
}

// Validate resolves a bearer token to its share. Unknown, revoked, and
// expired tokens all collapse to ErrInvalidShareToken.
func (s *ShareService) Validate(ctx context.Context, token string) (*models.FileShare, error) {
	share, err := s.repomanager.FileShares(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidShareToken
		}
		return nil, err
	}
	if share.Expired(time.Now()) {
		return nil, common.ErrInvalidShareToken
	}
	return share, nil
}

// Revoke deactivates a share. Only the owner of the shared file may revoke.
func (s *ShareService) Revoke(ctx context.Context, userID, shareID string) error {
	share, err := s.repomanager.FileShares(s.db).GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	file, err := s.repomanager.Files(s.db).GetByID(ctx, share.FileID)
	if err != nil {
		return err
	}
	if file.UserID != userID {
		return common.ErrAccessDenied
	}
	return s.repomanager.FileShares(s.db).Deactivate(ctx, shareID)
}

// CanAccess reports whether userID may read fileID: true for the owner, true
// when an active non-expired share names the user as target, false otherwise.
// Public links are not consulted here; they go through Validate instead.
func (s *ShareService) CanAccess(ctx context.Context, userID, fileID string) (bool, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if file.UserID == userID {
		return true, nil
	}
	share, err := s.repomanager.FileShares(s.db).FindForUser(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !share.Expired(time.Now()), nil
}

// ReapExpired deactivates shares whose expiry has passed. Purely cosmetic
// for storage hygiene: validators already treat expired shares as invalid.
func (s *ShareService) ReapExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.FileShares(s.db).DeactivateExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "deactivated expired shares", "count", n)
	}
	return n, nil
}
