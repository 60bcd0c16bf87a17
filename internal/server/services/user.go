package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/server/auth"
	"github.com/psemenov/filebox/internal/server/config"
	"github.com/psemenov/filebox/internal/server/models"
	"github.com/psemenov/filebox/internal/server/repositories/repomanager"
)

// UserService handles registration, login, and device enrollment. It is the
// identity provider for the rest of the engine: everything downstream trusts
// the userID minted here.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	defaultStorageQuota         int64
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		defaultStorageQuota:         cfg.DefaultStorageQuota,
	}
}

// Register creates a new active user with the default storage quota.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		StorageQuota: s.defaultStorageQuota,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return user, nil
}

// Login verifies credentials against the stored bcrypt hash and mints an
// access token. Unknown logins and wrong passwords are indistinguishable to
// the caller.
func (s *UserService) Login(ctx context.Context, login, password string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil, common.ErrUnauthorized
		}
		return "", nil, common.ErrInternal
	}
	if !user.IsActive {
		return "", nil, common.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, common.ErrUnauthorized
	}

	if err := repo.TouchLastLogin(ctx, user.ID); err != nil {
		return "", nil, common.ErrInternal
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrInternal
	}
	return token, user, nil
}

// Authorize resolves an access token back to a userID.
func (s *UserService) Authorize(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}

// RegisterDevice enrolls one of the user's sync clients. The deviceID it
// records is what mutations later carry for echo suppression; when the
// client supplies none, one is generated.
func (s *UserService) RegisterDevice(ctx context.Context, userID, name, deviceType, deviceID string) (*models.Device, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	device, err := s.repomanager.Devices(s.db).Create(ctx, &models.Device{
		UserID:   userID,
		Name:     name,
		Type:     deviceType,
		DeviceID: deviceID,
		IsActive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating device: %v", err)
	}
	return device, nil
}
