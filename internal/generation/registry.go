package generation

import (
	"fmt"

	"github.com/phrazzld/loreforge-api/internal/domain"
)

// Registry maps asset kinds to the backend that produces them. It is built
// once during application wiring and read-only afterwards, so no locking is
// needed.
type Registry struct {
	generators map[domain.AssetKind]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[domain.AssetKind]Generator),
	}
}

// Register binds a generator to an asset kind, replacing any previous binding.
func (r *Registry) Register(kind domain.AssetKind, generator Generator) {
	r.generators[kind] = generator
}

// Resolve returns the generator for the given asset kind.
// Returns ErrUnsupportedKind if no backend is registered for it.
func (r *Registry) Resolve(kind domain.AssetKind) (Generator, error) {
	generator, ok := r.generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return generator, nil
}

// Kinds returns the asset kinds that currently have a backend registered.
func (r *Registry) Kinds() []domain.AssetKind {
	kinds := make([]domain.AssetKind, 0, len(r.generators))
	for kind := range r.generators {
		kinds = append(kinds, kind)
	}
	return kinds
}
