// Package server initializes and runs the upload server: the gRPC and HTTP
// transports, the periodic reaper, and the optional ledger and publisher.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/filex"
	"github.com/dmitrijs2005/gophupload/internal/logging"
	"github.com/dmitrijs2005/gophupload/internal/server/config"
	"github.com/dmitrijs2005/gophupload/internal/server/metrics"
	"github.com/dmitrijs2005/gophupload/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophupload/internal/server/services"
	"github.com/dmitrijs2005/gophupload/internal/server/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	gs "github.com/dmitrijs2005/gophupload/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophupload/internal/server/http"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config        *config.Config
	logger        logging.Logger
	metrics       *metrics.UploadMetrics
	db            *sql.DB
	uploadService *services.UploadService
}

func NewApp(c *config.Config) (*App, error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tempDir, err := filex.EnsureDir(c.TempDir)
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	rootDir, err := filex.EnsureDir(c.UploadRootDir)
	if err != nil {
		return nil, fmt.Errorf("upload root: %w", err)
	}

	fsys := afero.NewOsFs()
	manager, err := upload.NewManager(upload.Options{
		Fs:                     fsys,
		TempDir:                tempDir,
		MaxSimultaneousUploads: c.MaxSimultaneousUploads,
		MinCleanupInterval:     c.MinCleanupInterval,
		Logger:                 logger,
		Metrics:                m,
	})
	if err != nil {
		return nil, fmt.Errorf("upload manager: %w", err)
	}

	opts := services.UploadServiceOptions{
		Manager: manager,
		Fs:      fsys,
		RootDir: rootDir,
		Logger:  logger,
	}

	var db *sql.DB
	if c.DatabaseDSN != "" {
		db, err = openDB(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		rm, err := repomanager.NewPostgresRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository manager: %w", err)
		}
		if err := rm.RunMigrations(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		opts.DB = db
		opts.RepoManager = rm
	}

	if c.S3Bucket != "" {
		opts.Publisher = services.NewS3Publisher(fsys, c)
	}

	return &App{
		config:        c,
		logger:        logger,
		metrics:       m,
		db:            db,
		uploadService: services.NewUploadService(opts),
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.uploadService, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.uploadService, app.config.SecretKey, app.metrics.Handler())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runPeriodically calls fn every period until ctx is done.
func runPeriodically(ctx context.Context, period time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (app *App) startCleanup(ctx context.Context) {
	app.logger.Info(ctx, "Scheduling cleanup", "period", app.config.CleanupPeriod.String())

	runPeriodically(ctx, app.config.CleanupPeriod, func(ctx context.Context) {
		report := app.uploadService.Cleanup(ctx)
		app.logger.Info(ctx, "Cleanup finished", "compared", report.Compared, "evicted", len(report.Evicted), "pending", app.uploadService.Pending())
	})
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startCleanup(ctx)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
