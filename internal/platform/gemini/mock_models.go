package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// MockImageModels implements the imageModels interface for testing.
// By default every call succeeds with a one-pixel payload; behavior can be
// overridden through GenerateImagesFn.
type MockImageModels struct {
	mu      sync.Mutex
	prompts []string

	GenerateImagesFn func(
		ctx context.Context,
		model string,
		prompt string,
		config *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error)
}

// NewMockImageModels creates a new MockImageModels.
func NewMockImageModels() *MockImageModels {
	return &MockImageModels{}
}

// GenerateImages records the prompt and delegates to GenerateImagesFn when set.
func (m *MockImageModels) GenerateImages(
	ctx context.Context,
	model string,
	prompt string,
	config *genai.GenerateImagesConfig,
) (*genai.GenerateImagesResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateImagesFn != nil {
		return m.GenerateImagesFn(ctx, model, prompt, config)
	}

	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{Image: &genai.Image{ImageBytes: []byte{0x89, 0x50, 0x4e, 0x47}}},
		},
	}, nil
}

// Prompts returns the prompts seen so far in call order.
func (m *MockImageModels) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
