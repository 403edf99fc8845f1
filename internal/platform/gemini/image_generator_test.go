package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/loreforge-api/internal/config"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
)

// memorySink collects written artifacts in memory.
type memorySink struct {
	mu      sync.Mutex
	written map[string][]byte
	writeFn func(ctx context.Context, key string, data []byte) (string, error)
}

func newMemorySink() *memorySink {
	return &memorySink{written: make(map[string][]byte)}
}

func (s *memorySink) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s.writeFn != nil {
		return s.writeFn(ctx, key, data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[key] = append([]byte(nil), data...)
	return key, nil
}

func newTestGenerator(models imageModels, sink ArtifactSink) *ImageGenerator {
	return &ImageGenerator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		config: config.GenerationConfig{
			ModelName:         "imagen-3.0-generate-002",
			MaxRetries:        2,
			RetryDelaySeconds: 1,
		},
		models:    models,
		model:     "imagen-3.0-generate-002",
		artifacts: sink,
	}
}

func TestNewImageGenerator_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := newMemorySink()
	validConfig := config.GenerationConfig{
		GeminiAPIKey: "test-key",
		ModelName:    "imagen-3.0-generate-002",
	}

	t.Run("nil_logger", func(t *testing.T) {
		_, err := NewImageGenerator(context.Background(), nil, validConfig, sink)
		assert.Error(t, err)
	})

	t.Run("nil_sink", func(t *testing.T) {
		_, err := NewImageGenerator(context.Background(), logger, validConfig, nil)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing_api_key", func(t *testing.T) {
		cfg := validConfig
		cfg.GeminiAPIKey = ""
		_, err := NewImageGenerator(context.Background(), logger, cfg, sink)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing_model_name", func(t *testing.T) {
		cfg := validConfig
		cfg.ModelName = ""
		_, err := NewImageGenerator(context.Background(), logger, cfg, sink)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestImageGenerator_Generate(t *testing.T) {
	t.Parallel()

	models := NewMockImageModels()
	sink := newMemorySink()
	generator := newTestGenerator(models, sink)

	targetID := uuid.New()
	artifactID, err := generator.Generate(context.Background(), targetID, domain.AssetKindPortrait, nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, artifactID)

	// Exactly one artifact written, keyed under the target
	require.Len(t, sink.written, 1)
	for key := range sink.written {
		assert.Contains(t, key, targetID.String())
		assert.Contains(t, key, artifactID.String())
	}

	// One API call with a rendered prompt
	prompts := models.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "portrait")
}

func TestImageGenerator_Generate_UnsupportedKind(t *testing.T) {
	t.Parallel()

	models := NewMockImageModels()
	generator := newTestGenerator(models, newMemorySink())

	_, err := generator.Generate(context.Background(), uuid.New(), domain.AssetKind("soundtrack"), nil)
	assert.ErrorIs(t, err, generation.ErrUnsupportedKind)
	assert.Empty(t, models.Prompts(), "no API call for an unsupported kind")
}

func TestImageGenerator_Generate_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls int
	models := NewMockImageModels()
	models.GenerateImagesFn = func(
		ctx context.Context,
		model string,
		prompt string,
		cfg *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("503 service unavailable")
		}
		return &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{
				{Image: &genai.Image{ImageBytes: []byte("png-bytes")}},
			},
		}, nil
	}
	generator := newTestGenerator(models, newMemorySink())

	_, err := generator.Generate(context.Background(), uuid.New(), domain.AssetKindPortrait, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestImageGenerator_Generate_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	models := NewMockImageModels()
	models.GenerateImagesFn = func(
		ctx context.Context,
		model string,
		prompt string,
		cfg *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error) {
		return nil, errors.New("503 service unavailable")
	}
	generator := newTestGenerator(models, newMemorySink())

	_, err := generator.Generate(context.Background(), uuid.New(), domain.AssetKindPortrait, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrBackendFailure)

	// MaxRetries 2 means three attempts total
	assert.Len(t, models.Prompts(), 3)
}

func TestImageGenerator_Generate_BlockedContentIsNotRetried(t *testing.T) {
	t.Parallel()

	models := NewMockImageModels()
	models.GenerateImagesFn = func(
		ctx context.Context,
		model string,
		prompt string,
		cfg *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error) {
		return &genai.GenerateImagesResponse{}, nil
	}
	generator := newTestGenerator(models, newMemorySink())

	_, err := generator.Generate(context.Background(), uuid.New(), domain.AssetKindPortrait, nil)
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Len(t, models.Prompts(), 1, "blocked content must not be retried")
}

func TestImageGenerator_Generate_SinkFailure(t *testing.T) {
	t.Parallel()

	sink := newMemorySink()
	sink.writeFn = func(ctx context.Context, key string, data []byte) (string, error) {
		return "", errors.New("disk full")
	}
	generator := newTestGenerator(NewMockImageModels(), sink)

	_, err := generator.Generate(context.Background(), uuid.New(), domain.AssetKindPortrait, nil)
	assert.ErrorIs(t, err, generation.ErrBackendFailure)
}
