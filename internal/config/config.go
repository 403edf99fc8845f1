package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"  validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SchedulerConfig contains the background job scheduler settings.
type SchedulerConfig struct {
	// MaxConcurrentJobs bounds how many jobs may be in processing at once
	// within this process.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs" validate:"required,gt=0"`

	// PollInterval is how often the scheduler scans for queued jobs.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0"`

	// JobTimeout caps the execution time of a single job so a hung backend
	// call cannot hold a concurrency slot forever. Zero disables the cap.
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"gte=0"`
}

// GenerationConfig contains the image generation backend settings.
type GenerationConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	// ArtifactDir is where generated image bytes are written by the
	// filesystem artifact sink.
	ArtifactDir string `mapstructure:"artifact_dir" validate:"required"`
}
