// Package server initializes and runs the storage engine: it opens the
// metadata database, applies migrations, selects a blob backend and wires
// the folder, file and share services together. Transport front-ends embed
// an App and call the services directly.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/logging"
	"github.com/dbelyaev/cloudstash/internal/server/config"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/repomanager"
	"github.com/dbelyaev/cloudstash/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	blobs  blob.Store

	FolderService *services.FolderService
	FileService   *services.FileService
	ShareService  *services.ShareService
}

// newBlobStore builds the blob backend named in the config.
func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendFS:
		return blob.NewFSStore(c.BlobDir)
	case config.BlobBackendBadger:
		return blob.NewBadgerStore(c.BlobDir)
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			KeyPrefix:    c.S3KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		blobs:         blobs,
		FolderService: services.NewFolderService(db, rm, blobs, logger),
		FileService:   services.NewFileService(db, rm, blobs, logger),
		ShareService:  services.NewShareService(db, rm, blobs),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until the context is cancelled or a termination signal
// arrives, then releases the database and blob-store handles.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"blob_backend", app.config.BlobBackend)

	app.initSignalHandler(cancelFunc)

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")

	if closer, ok := app.blobs.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(ctx, "blob store close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
