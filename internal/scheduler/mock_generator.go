package scheduler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
)

// MockGenerator implements generation.Generator for testing. By default it
// returns a fresh artifact ID per call; behavior can be overridden through
// GenerateFn. Calls are recorded in order.
type MockGenerator struct {
	mutex      sync.Mutex
	calls      []uuid.UUID
	GenerateFn func(ctx context.Context, targetID uuid.UUID, assetKind domain.AssetKind, params json.RawMessage) (uuid.UUID, error)
}

// NewMockGenerator creates a MockGenerator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the call and delegates to GenerateFn when set.
func (g *MockGenerator) Generate(
	ctx context.Context,
	targetID uuid.UUID,
	assetKind domain.AssetKind,
	params json.RawMessage,
) (uuid.UUID, error) {
	g.mutex.Lock()
	g.calls = append(g.calls, targetID)
	g.mutex.Unlock()

	if g.GenerateFn != nil {
		return g.GenerateFn(ctx, targetID, assetKind, params)
	}
	return uuid.New(), nil
}

// Calls returns the target IDs passed to Generate, in call order.
func (g *MockGenerator) Calls() []uuid.UUID {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return append([]uuid.UUID(nil), g.calls...)
}
