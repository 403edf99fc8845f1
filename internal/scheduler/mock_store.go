package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// MockJobStore implements the store.JobStore interface for testing.
// Default behavior is an in-memory map; individual operations can be
// overridden through the *Fn fields.
type MockJobStore struct {
	mutex sync.RWMutex
	jobs  map[uuid.UUID]*domain.Job

	CreateFn           func(ctx context.Context, job *domain.Job) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	UpdateFn           func(ctx context.Context, id uuid.UUID, patch store.JobPatch) (*domain.Job, error)
	ListWorldsFn       func(ctx context.Context) ([]uuid.UUID, error)
	FindJobsByStatusFn func(ctx context.Context, worldID uuid.UUID, status domain.JobStatus) ([]*domain.Job, error)
	FindJobsByWorldFn  func(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error)
}

// NewMockJobStore creates a new MockJobStore with default implementations.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{
		jobs: make(map[uuid.UUID]*domain.Job),
	}
}

// cloneJob copies a job so callers never share memory with the stored record.
func cloneJob(job *domain.Job) *domain.Job {
	copied := *job
	if job.ArtifactIDs != nil {
		copied.ArtifactIDs = append([]uuid.UUID(nil), job.ArtifactIDs...)
	}
	return &copied
}

// Create saves a new job to the in-memory map.
func (s *MockJobStore) Create(ctx context.Context, job *domain.Job) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, job)
	}

	if err := job.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return store.ErrDuplicate
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetByID retrieves a job by ID, returning a copy.
func (s *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, store.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// Update applies a partial-field patch to the stored job.
func (s *MockJobStore) Update(ctx context.Context, id uuid.UUID, patch store.JobPatch) (*domain.Job, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, patch)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, store.ErrJobNotFound
	}

	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Progress != nil {
		job.Progress = *patch.Progress
	}
	if patch.ArtifactIDs != nil {
		job.ArtifactIDs = append([]uuid.UUID(nil), patch.ArtifactIDs...)
	}
	if patch.CompletedCount != nil {
		job.CompletedCount = *patch.CompletedCount
	}
	if patch.ErrorMessage != nil {
		job.ErrorMessage = *patch.ErrorMessage
	}
	if patch.StartedAt != nil {
		job.StartedAt = patch.StartedAt
	}
	if patch.CompletedAt != nil {
		job.CompletedAt = patch.CompletedAt
	}

	return cloneJob(job), nil
}

// ListWorlds returns the distinct world IDs present in the store, in a
// stable order so scan-order tests are deterministic.
func (s *MockJobStore) ListWorlds(ctx context.Context) ([]uuid.UUID, error) {
	if s.ListWorldsFn != nil {
		return s.ListWorldsFn(ctx)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	worlds := make([]uuid.UUID, 0)
	for _, job := range s.jobs {
		if _, ok := seen[job.WorldID]; !ok {
			seen[job.WorldID] = struct{}{}
			worlds = append(worlds, job.WorldID)
		}
	}
	sort.Slice(worlds, func(i, j int) bool {
		return worlds[i].String() < worlds[j].String()
	})
	return worlds, nil
}

// FindJobsByStatus returns a world's jobs with the given status in creation order.
func (s *MockJobStore) FindJobsByStatus(ctx context.Context, worldID uuid.UUID, status domain.JobStatus) ([]*domain.Job, error) {
	if s.FindJobsByStatusFn != nil {
		return s.FindJobsByStatusFn(ctx, worldID, status)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]*domain.Job, 0)
	for _, job := range s.jobs {
		if job.WorldID == worldID && job.Status == status {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sortByCreation(jobs)
	return jobs, nil
}

// FindJobsByWorld returns all of a world's jobs in creation order.
func (s *MockJobStore) FindJobsByWorld(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error) {
	if s.FindJobsByWorldFn != nil {
		return s.FindJobsByWorldFn(ctx, worldID)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]*domain.Job, 0)
	for _, job := range s.jobs {
		if job.WorldID == worldID {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sortByCreation(jobs)
	return jobs, nil
}

// sortByCreation orders jobs the way a database would with an index on
// created_at, falling back to ID for jobs created in the same instant.
func sortByCreation(jobs []*domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID.String() < jobs[j].ID.String()
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}
