// Package main implements the entry point for the Loreforge API server,
// which manages worldbuilding projects and schedules AI image generation
// jobs for their entities.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/loreforge-api/internal/config"
	"github.com/phrazzld/loreforge-api/internal/platform/logger"
)

// main initializes configuration, logging, the database, and all application
// services, then runs the HTTP server until a shutdown signal arrives.
func main() {
	cfg, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx := context.Background()

	db, err := setupAppDatabase(cfg, slog.Default())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := runMigrations(db, slog.Default()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	app, err := newApplication(ctx, cfg, slog.Default(), db)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up application components.
// Returns the loaded config and any initialization error.
func initializeApp() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	_, err = logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs,
		"poll_interval", cfg.Scheduler.PollInterval)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true)
	}
	if cfg.Auth.JWTSecret != "" {
		slog.Debug("Auth configuration", "jwt_secret_present", true)
	}
	if cfg.Generation.GeminiAPIKey != "" {
		slog.Debug("Generation configuration",
			"api_key_present", true,
			"model", cfg.Generation.ModelName)
	}

	return cfg, nil
}
