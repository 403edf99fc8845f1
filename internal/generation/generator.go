package generation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
)

// Generator defines the interface for producing a single asset for a target
// entity. This interface is the boundary between the scheduler core and
// external generation backends, following the hexagonal architecture
// pattern: the scheduler hands over the opaque parameter bag unmodified and
// only ever sees an artifact identifier back.
type Generator interface {
	// Generate produces one asset of the given kind for the target entity
	// and returns the identifier of the stored artifact.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - targetID: The entity the asset is generated for
	//   - assetKind: The category of asset to produce
	//   - params: The job's opaque generation parameters, passed through verbatim
	//
	// Returns:
	//   - The UUID of the produced artifact
	//   - An error if generation fails for any reason (see errors.go)
	Generate(
		ctx context.Context,
		targetID uuid.UUID,
		assetKind domain.AssetKind,
		params json.RawMessage,
	) (uuid.UUID, error)
}
