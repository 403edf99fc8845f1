package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/loreforge-api/internal/config"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/platform/gemini"
	"github.com/phrazzld/loreforge-api/internal/platform/postgres"
	"github.com/phrazzld/loreforge-api/internal/platform/storage"
	"github.com/phrazzld/loreforge-api/internal/scheduler"
	"github.com/phrazzld/loreforge-api/internal/service"
	"github.com/phrazzld/loreforge-api/internal/service/auth"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	jobStore store.JobStore

	// Artifact storage
	artifactStore *storage.FileStore

	// Service interfaces
	jwtService auth.JWTService
	jobService service.JobService

	// Generation backends keyed by asset kind
	registry *generation.Registry

	// Background job scheduling
	scheduler *scheduler.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize stores
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	// Initialize the artifact sink for generated images
	app.artifactStore, err = storage.NewFileStore(cfg.Generation.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	// Create the image generation backend and register it for every asset
	// kind it supports. A single Imagen-backed generator covers all kinds;
	// prompt construction varies per kind inside the generator.
	imageGenerator, err := gemini.NewImageGenerator(
		ctx,
		logger.With("component", "image_generator"),
		cfg.Generation,
		app.artifactStore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image generator: %w", err)
	}
	logger.Info("Image generator initialized successfully",
		"model", cfg.Generation.ModelName)

	app.registry = generation.NewRegistry()
	for _, kind := range []domain.AssetKind{
		domain.AssetKindPortrait,
		domain.AssetKindBuildingExterior,
		domain.AssetKindTerrainMap,
		domain.AssetKindPoliticalMap,
		domain.AssetKindTextureVariants,
	} {
		app.registry.Register(kind, imageGenerator)
	}

	// Initialize job service
	app.jobService, err = service.NewJobService(app.jobStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	// Initialize the background scheduler
	app.scheduler = scheduler.New(app.jobStore, app.registry, scheduler.Config{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		PollInterval:      cfg.Scheduler.PollInterval,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the scheduler and the HTTP server, handling lifecycle and
// cleanup. It returns an error if the server fails to start or encounters
// problems.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start()

	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. The scheduler
// stops accepting new work first; already dispatched jobs run to a terminal
// state before the database connection closes.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
		app.scheduler.Drain()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
