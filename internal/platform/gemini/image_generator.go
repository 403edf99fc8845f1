package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/phrazzld/loreforge-api/internal/config"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/platform/storage"
)

// ArtifactSink is where generated image bytes land. The job record only
// carries artifact IDs; the sink owns the bytes.
type ArtifactSink interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// imageModels abstracts the genai image API so tests can stand in for the
// remote service.
type imageModels interface {
	GenerateImages(
		ctx context.Context,
		model string,
		prompt string,
		config *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error)
}

// ImageGenerator implements the generation.Generator interface using
// Google's Imagen models via the Gemini API.
type ImageGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains generation-specific configuration
	config config.GenerationConfig

	// models is the image-generation surface of the Gemini client
	models imageModels

	// model is the name of the image model to use
	model string

	// artifacts receives the generated image bytes
	artifacts ArtifactSink
}

// NewImageGenerator creates a new instance of ImageGenerator with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: Generation configuration containing API key, model name, and retry settings
//   - artifacts: The sink generated image bytes are written to
//
// Returns:
//   - A properly initialized ImageGenerator or an error if initialization fails
func NewImageGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
	artifacts ArtifactSink,
) (*ImageGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if artifacts == nil {
		return nil, fmt.Errorf("%w: artifact sink cannot be nil", generation.ErrInvalidConfig)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &ImageGenerator{
		logger:    logger.With(slog.String("component", "image_generator")),
		config:    cfg,
		models:    client.Models,
		model:     cfg.ModelName,
		artifacts: artifacts,
	}, nil
}

// Ensure ImageGenerator implements generation.Generator
var _ generation.Generator = (*ImageGenerator)(nil)

// Generate produces one image for the target entity and persists it through
// the artifact sink. The returned ID identifies the stored artifact.
func (g *ImageGenerator) Generate(
	ctx context.Context,
	targetID uuid.UUID,
	assetKind domain.AssetKind,
	params json.RawMessage,
) (uuid.UUID, error) {
	prompt, err := buildPrompt(assetKind, params)
	if err != nil {
		return uuid.Nil, err
	}

	g.logger.DebugContext(ctx, "generated image prompt",
		"target_id", targetID,
		"asset_kind", assetKind,
		"prompt_length", len(prompt))

	imageBytes, err := g.callImagenWithRetry(ctx, prompt)
	if err != nil {
		return uuid.Nil, err
	}

	artifactID := uuid.New()
	key := storage.ArtifactKey(targetID, artifactID)
	if _, err := g.artifacts.Write(ctx, key, imageBytes); err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to store artifact: %v",
			generation.ErrBackendFailure, err)
	}

	g.logger.InfoContext(ctx, "image generated",
		"target_id", targetID,
		"asset_kind", assetKind,
		"artifact_id", artifactID,
		"bytes", len(imageBytes))

	return artifactID, nil
}

// callImagenWithRetry makes a call to the image API with exponential backoff
// retry logic.
//
// It attempts the call up to config.MaxRetries times, using exponential
// backoff with jitter between retries for transient errors. Permanent errors
// (an empty response, which is how safety-filtered prompts surface) are
// returned immediately without retrying.
func (g *ImageGenerator) callImagenWithRetry(ctx context.Context, prompt string) ([]byte, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.DebugContext(ctx, "making image API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		resp, err := g.models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
		})

		if err == nil {
			if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
				// An empty result is the blocked-content shape; retrying
				// the same prompt cannot help.
				return nil, fmt.Errorf("%w: no image returned", generation.ErrContentBlocked)
			}

			image := resp.GeneratedImages[0].Image
			if len(image.ImageBytes) == 0 {
				return nil, fmt.Errorf("%w: empty image payload", generation.ErrBackendFailure)
			}

			g.logger.DebugContext(ctx, "image API call successful", "attempt", attemptNum)
			return image.ImageBytes, nil
		}

		g.logger.ErrorContext(ctx, "image API call failed",
			"attempt", attemptNum,
			"error", err)

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrBackendFailure, maxRetries, err)
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			g.logger.WarnContext(ctx, "image API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return nil, fmt.Errorf("%w: %v", generation.ErrBackendFailure, ctx.Err())
		}
	}
}
