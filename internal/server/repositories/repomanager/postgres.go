// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/migrations"
	"github.com/psemenov/filebox/internal/server/repositories/devices"
	"github.com/psemenov/filebox/internal/server/repositories/files"
	"github.com/psemenov/filebox/internal/server/repositories/fileshares"
	"github.com/psemenov/filebox/internal/server/repositories/fileversions"
	"github.com/psemenov/filebox/internal/server/repositories/syncevents"
	"github.com/psemenov/filebox/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Devices(db dbx.DBTX) devices.Repository {
	return devices.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FileVersions(db dbx.DBTX) fileversions.Repository {
	return fileversions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FileShares(db dbx.DBTX) fileshares.Repository {
	return fileshares.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) SyncEvents(db dbx.DBTX) syncevents.Repository {
	return syncevents.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
