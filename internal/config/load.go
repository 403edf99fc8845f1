package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (prefix LOREFORGE_, nested keys joined with
// underscores, e.g. LOREFORGE_SCHEDULER_MAX_CONCURRENT_JOBS) take precedence
// over values from config.yaml in the working directory.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one; secrets and
	// connection strings must be provided by the environment.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("scheduler.max_concurrent_jobs", 3)
	v.SetDefault("scheduler.poll_interval", 2*time.Second)
	v.SetDefault("scheduler.job_timeout", 10*time.Minute)
	v.SetDefault("generation.model_name", "imagen-3.0-generate-002")
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay_seconds", 2)
	v.SetDefault("generation.artifact_dir", "./artifacts")

	// Optional config file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables win over file values.
	v.SetEnvPrefix("LOREFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only surfaces env-only keys it has been told about.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"scheduler.max_concurrent_jobs",
		"scheduler.poll_interval",
		"scheduler.job_timeout",
		"generation.gemini_api_key",
		"generation.model_name",
		"generation.max_retries",
		"generation.retry_delay_seconds",
		"generation.artifact_dir",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
