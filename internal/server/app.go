// Package server wires the storage engine together: database, migrations,
// blob store backend, notification channel, and the services on top. It also
// owns the background sweeps (version pruning, share expiry) and graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/psemenov/filebox/internal/blobstore"
	"github.com/psemenov/filebox/internal/logging"
	"github.com/psemenov/filebox/internal/notify"
	"github.com/psemenov/filebox/internal/server/config"
	"github.com/psemenov/filebox/internal/server/repositories/repomanager"
	"github.com/psemenov/filebox/internal/server/services"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	notifier     notify.Notifier
	userService  *services.UserService
	fileService  *services.FileService
	shareService *services.ShareService
	syncService  *services.SyncService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.NATSURL != "" {
		n, err := notify.NewNATS(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("nats init error: %w", err)
		}
		notifier = n
	}

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		notifier:     notifier,
		userService:  services.NewUserService(db, m, cfg),
		fileService:  services.NewFileService(db, m, blobs, notifier, logger),
		shareService: services.NewShareService(db, m, logger),
		syncService:  services.NewSyncService(db, m),
	}, nil
}

func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendFS:
		return blobstore.NewFS(cfg.BlobBaseDir)
	case config.BlobBackendS3:
		return blobstore.NewS3(context.Background(), blobstore.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// Service accessors for the outer transport surface.

func (app *App) Users() *services.UserService   { return app.userService }
func (app *App) Files() *services.FileService   { return app.fileService }
func (app *App) Shares() *services.ShareService { return app.shareService }
func (app *App) Sync() *services.SyncService    { return app.syncService }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// pruneSweepBatch bounds how many files one pruning pass inspects.
const pruneSweepBatch = 100

func (app *App) runPruneSweep(ctx context.Context) {
	ticker := time.NewTicker(app.config.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := app.fileService.PruneSweep(ctx, app.config.PruneKeepCount, pruneSweepBatch)
			if err != nil {
				app.logger.Error(ctx, "prune sweep failed", "error", err)
				continue
			}
			if pruned > 0 {
				app.logger.Info(ctx, "prune sweep finished", "versions_pruned", pruned)
			}
		}
	}
}

func (app *App) runShareReaper(ctx context.Context) {
	ticker := time.NewTicker(app.config.ShareReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.shareService.ReapExpired(ctx); err != nil {
				app.logger.Error(ctx, "share reaper failed", "error", err)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"blob_backend", app.config.BlobBackend,
		"prune_keep_count", app.config.PruneKeepCount)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runPruneSweep(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runShareReaper(ctx)
	}()

	wg.Wait()

	if n, ok := app.notifier.(*notify.NATS); ok {
		n.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
