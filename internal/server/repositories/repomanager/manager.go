package repomanager

import (
	"context"
	"database/sql"

	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/server/repositories/devices"
	"github.com/psemenov/filebox/internal/server/repositories/files"
	"github.com/psemenov/filebox/internal/server/repositories/fileshares"
	"github.com/psemenov/filebox/internal/server/repositories/fileversions"
	"github.com/psemenov/filebox/internal/server/repositories/syncevents"
	"github.com/psemenov/filebox/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// several repositories against one shared transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Files(db dbx.DBTX) files.Repository
	FileVersions(db dbx.DBTX) fileversions.Repository
	FileShares(db dbx.DBTX) fileshares.Repository
	SyncEvents(db dbx.DBTX) syncevents.Repository
}
