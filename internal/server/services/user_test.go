package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/server/auth"
	"github.com/psemenov/filebox/internal/server/config"
	"github.com/psemenov/filebox/internal/server/models"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Minute,
		DefaultStorageQuota:         1000,
	}
}

func TestRegister(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newManager()
	s := NewUserService(db, m, testConfig())

	user, err := s.Register(context.Background(), "alice", "alice@example.com", "pa55word")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.UserName)
	assert.Equal(t, int64(1000), user.StorageQuota)
	assert.True(t, user.IsActive)

	// password is stored as a bcrypt hash, never in the clear
	assert.NotEqual(t, "pa55word", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pa55word")))
}

func TestLogin(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pa55word"), bcrypt.MinCost)
	require.NoError(t, err)

	m := newManager()
	m.u.user = &models.User{ID: "user-1", UserName: "alice", PasswordHash: string(hash), IsActive: true}

	s := NewUserService(db, m, testConfig())

	token, user, err := s.Login(context.Background(), "alice", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	userID, err := auth.GetUserIDFromToken(token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pa55word"), bcrypt.MinCost)
	require.NoError(t, err)

	m := newManager()
	m.u.user = &models.User{ID: "user-1", PasswordHash: string(hash), IsActive: true}

	s := NewUserService(db, m, testConfig())

	_, _, err = s.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newManager()
	m.u.getErr = common.ErrNotFound

	s := NewUserService(db, m, testConfig())

	_, _, err := s.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogin_InactiveUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pa55word"), bcrypt.MinCost)
	require.NoError(t, err)

	m := newManager()
	m.u.user = &models.User{ID: "user-1", PasswordHash: string(hash), IsActive: false}

	s := NewUserService(db, m, testConfig())

	_, _, err = s.Login(context.Background(), "alice", "pa55word")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthorize(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewUserService(db, newManager(), testConfig())

	token, err := auth.GenerateToken("user-1", []byte("test-secret"), time.Minute)
	require.NoError(t, err)

	userID, err := s.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthorize_ExpiredToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewUserService(db, newManager(), testConfig())

	token, err := auth.GenerateToken("user-1", []byte("test-secret"), -time.Minute)
	require.NoError(t, err)

	_, err = s.Authorize(token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestRegisterDevice(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newManager()
	s := NewUserService(db, m, testConfig())

	device, err := s.RegisterDevice(context.Background(), "user-1", "laptop", "desktop", "dev-a")
	require.NoError(t, err)

	assert.Equal(t, "user-1", device.UserID)
	assert.Equal(t, "dev-a", device.DeviceID)
	assert.True(t, device.IsActive)
	require.Len(t, m.d.created, 1)
}

func TestRegisterDevice_GeneratesDeviceID(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newManager()
	s := NewUserService(db, m, testConfig())

	device, err := s.RegisterDevice(context.Background(), "user-1", "laptop", "desktop", "")
	require.NoError(t, err)
	assert.NotEmpty(t, device.DeviceID)
}
