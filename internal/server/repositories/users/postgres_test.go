package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", "hash", int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u1", now))

	got, err := repo.Create(context.Background(), &models.User{
		UserName:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		StorageQuota: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "u1" || !got.IsActive {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func userRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "is_active",
		"storage_quota", "storage_used", "created_at", "last_login",
	})
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, email, password_hash, is_active`).
		WithArgs("u1").
		WillReturnRows(userRows(t).AddRow("u1", "alice", "a@e.com", "hash", true, int64(1000), int64(600), now, nil))

	got, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StorageUsed != 600 || got.StorageQuota != 1000 {
		t.Fatalf("unexpected quota fields: %+v", got)
	}
	if got.LastLogin != nil {
		t.Fatalf("expected nil LastLogin, got %v", got.LastLogin)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, email, password_hash, is_active`).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "absent")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByLogin_MatchesEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE username = \$1 OR email = \$1`).
		WithArgs("a@e.com").
		WillReturnRows(userRows(t).AddRow("u1", "alice", "a@e.com", "hash", true, int64(1000), int64(0), now, now))

	got, err := repo.GetByLogin(context.Background(), "a@e.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LastLogin == nil {
		t.Fatal("expected LastLogin to be set")
	}
}

func TestAdjustStorageUsed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET storage_used = GREATEST\(storage_used \+ \$2, 0\)`).
		WithArgs("u1", int64(-500)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_used"}).AddRow(int64(0)))

	used, err := repo.AdjustStorageUsed(context.Background(), "u1", -500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != 0 {
		t.Fatalf("want clamped 0, got %d", used)
	}
}

func TestAdjustStorageUsed_UserMissing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET storage_used`).
		WithArgs("absent", int64(10)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AdjustStorageUsed(context.Background(), "absent", 10)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET last_login = now\(\)`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.TouchLastLogin(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
