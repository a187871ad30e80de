// Package server wires configuration, storage, services and transports into
// the running data hub: the JSON HTTP API and the gRPC health endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/archive"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/config"
	"github.com/nownpp/data-hub-entry/internal/server/events"
	"github.com/nownpp/data-hub-entry/internal/server/httpapi"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
	"github.com/nownpp/data-hub-entry/internal/server/services"

	gs "github.com/nownpp/data-hub-entry/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	store     repomanager.RepositoryManager
	publisher events.Publisher
	metrics   *metrics.Metrics

	authService       *services.AuthService
	dataService       *services.CollectorDataService
	submissionService *services.SubmissionService
	adminService      *services.AdminService
	admins            *auth.PlatformAdminVerifier
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if !c.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, store, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(c.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic)
	}

	var archiver archive.Archiver = archive.NopArchiver{}
	if c.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.S3Options{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("statement archive init error: %w", err)
		}
		archiver = a
	}

	mt := metrics.New()
	admins := auth.NewPlatformAdminVerifier(c.AdminSecret)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		store:     store,
		publisher: publisher,
		metrics:   mt,

		authService:       services.NewAuthService(store, admins, c, mt, logger),
		dataService:       services.NewCollectorDataService(store, c, publisher, archiver, mt, logger),
		submissionService: services.NewSubmissionService(store, c, mt, logger),
		adminService:      services.NewAdminService(store, logger),
		admins:            admins,
	}, nil
}

// openStore connects to Postgres and applies migrations, or falls back to
// the in-memory store when no DSN is configured.
func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using the in-memory store")
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(db)
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	return db, rm, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := httpapi.NewServer(app.config.EndpointAddrHTTP, httpapi.Dependencies{
		Auth:        app.authService,
		Data:        app.dataService,
		Submissions: app.submissionService,
		Admin:       app.adminService,
		Admins:      app.admins,
		Health:      app.store,
		Metrics:     app.metrics,
	}, app.logger)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then releases the store and the event publisher.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "closing event publisher", "error", err)
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	app.logger.Info(ctx, "App stopped")
}
