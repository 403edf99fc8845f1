package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
)

// JobPatch is a partial-field update for a job record. Nil fields are left
// untouched; set fields are written last-write-wins. The scheduler is the
// only writer for a job once it has been admitted, so no optimistic
// concurrency check is carried here.
type JobPatch struct {
	Status         *domain.JobStatus
	Progress       *float64
	ArtifactIDs    []uuid.UUID
	CompletedCount *int
	ErrorMessage   *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// JobStore defines the interface for job data persistence.
// Version: 1.0
type JobStore interface {
	// Create saves a new job to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Job if data is invalid.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// Update applies a partial-field patch to an existing job.
	// Returns ErrJobNotFound if the job does not exist.
	Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*domain.Job, error)

	// ListWorlds returns the IDs of every world that has at least one job.
	ListWorlds(ctx context.Context) ([]uuid.UUID, error)

	// FindJobsByStatus retrieves all of a world's jobs with the specified
	// status, in the store's natural (creation) order. Returns an empty
	// slice if no jobs match.
	FindJobsByStatus(ctx context.Context, worldID uuid.UUID, status domain.JobStatus) ([]*domain.Job, error)

	// FindJobsByWorld retrieves all jobs belonging to a world, in creation
	// order. Used for aggregate status snapshots.
	FindJobsByWorld(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error)
}
