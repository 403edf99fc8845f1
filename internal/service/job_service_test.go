package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// mockJobStore implements store.JobStore for service tests. Default behavior
// is an in-memory map; operations can be overridden through the *Fn fields.
type mockJobStore struct {
	jobs map[uuid.UUID]*domain.Job

	createFn          func(ctx context.Context, job *domain.Job) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	updateFn          func(ctx context.Context, id uuid.UUID, patch store.JobPatch) (*domain.Job, error)
	findJobsByWorldFn func(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error)
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[uuid.UUID]*domain.Job)}
}

func (s *mockJobStore) Create(ctx context.Context, job *domain.Job) error {
	if s.createFn != nil {
		return s.createFn(ctx, job)
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *mockJobStore) Update(ctx context.Context, id uuid.UUID, patch store.JobPatch) (*domain.Job, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, patch)
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.CompletedAt != nil {
		job.CompletedAt = patch.CompletedAt
	}
	copied := *job
	return &copied, nil
}

func (s *mockJobStore) ListWorlds(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *mockJobStore) FindJobsByStatus(ctx context.Context, worldID uuid.UUID, status domain.JobStatus) ([]*domain.Job, error) {
	jobs := make([]*domain.Job, 0)
	for _, job := range s.jobs {
		if job.WorldID == worldID && job.Status == status {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (s *mockJobStore) FindJobsByWorld(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error) {
	if s.findJobsByWorldFn != nil {
		return s.findJobsByWorldFn(ctx, worldID)
	}
	jobs := make([]*domain.Job, 0)
	for _, job := range s.jobs {
		if job.WorldID == worldID {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func newTestJobService(t *testing.T, jobStore store.JobStore) JobService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewJobService(jobStore, logger)
	require.NoError(t, err)
	return svc
}

func TestNewJobService_NilStore(t *testing.T) {
	t.Parallel()

	_, err := NewJobService(nil, nil)
	require.Error(t, err)

	var serviceErr *JobServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_service", serviceErr.Operation)
}

func TestJobService_CreateJob(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	svc := newTestJobService(t, jobStore)

	worldID := uuid.New()
	targetID := uuid.New()

	job, err := svc.CreateJob(
		context.Background(),
		worldID,
		domain.JobKindSingleAsset,
		domain.AssetKindPortrait,
		targetID,
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Equal(t, worldID, job.WorldID)
	assert.Equal(t, targetID, job.TargetID)

	stored, err := jobStore.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, stored.Status)
}

func TestJobService_CreateJob_InvalidRequest(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	svc := newTestJobService(t, jobStore)

	// Unknown kind never reaches the store
	_, err := svc.CreateJob(
		context.Background(),
		uuid.New(),
		domain.JobKind("timelapse"),
		domain.AssetKindPortrait,
		uuid.New(),
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidJobKind)
	assert.Empty(t, jobStore.jobs)
}

func TestJobService_CreateJob_StoreFailure(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	jobStore.createFn = func(ctx context.Context, job *domain.Job) error {
		return errors.New("connection refused")
	}
	svc := newTestJobService(t, jobStore)

	_, err := svc.CreateJob(
		context.Background(),
		uuid.New(),
		domain.JobKindSingleAsset,
		domain.AssetKindPortrait,
		uuid.New(),
		nil,
	)
	require.Error(t, err)

	var serviceErr *JobServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_job", serviceErr.Operation)
}

func TestJobService_GetJob_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestJobService(t, newMockJobStore())

	_, err := svc.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobService_CancelJob(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	svc := newTestJobService(t, jobStore)

	job, err := svc.CreateJob(
		context.Background(),
		uuid.New(),
		domain.JobKindSingleAsset,
		domain.AssetKindPortrait,
		uuid.New(),
		nil,
	)
	require.NoError(t, err)

	cancelled, err := svc.CancelJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	stored, err := jobStore.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, stored.Status)
}

func TestJobService_CancelJob_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestJobService(t, newMockJobStore())

	_, err := svc.CancelJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobService_CancelJob_NotQueued(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status domain.JobStatus
	}{
		{name: "processing", status: domain.JobStatusProcessing},
		{name: "completed", status: domain.JobStatusCompleted},
		{name: "failed", status: domain.JobStatusFailed},
		{name: "cancelled", status: domain.JobStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jobStore := newMockJobStore()
			svc := newTestJobService(t, jobStore)

			job, err := svc.CreateJob(
				context.Background(),
				uuid.New(),
				domain.JobKindSingleAsset,
				domain.AssetKindPortrait,
				uuid.New(),
				nil,
			)
			require.NoError(t, err)
			jobStore.jobs[job.ID].Status = tt.status

			_, err = svc.CancelJob(context.Background(), job.ID)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)

			// The stored record is untouched
			stored, getErr := jobStore.GetByID(context.Background(), job.ID)
			require.NoError(t, getErr)
			assert.Equal(t, tt.status, stored.Status)
		})
	}
}

func TestJobService_GetWorldStatus(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	svc := newTestJobService(t, jobStore)

	worldID := uuid.New()
	otherWorldID := uuid.New()

	statuses := []domain.JobStatus{
		domain.JobStatusQueued,
		domain.JobStatusQueued,
		domain.JobStatusProcessing,
		domain.JobStatusCompleted,
		domain.JobStatusCompleted,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
		domain.JobStatusCancelled,
	}
	for _, status := range statuses {
		job, err := domain.NewJob(worldID, domain.JobKindSingleAsset, domain.AssetKindPortrait, uuid.New(), nil)
		require.NoError(t, err)
		job.Status = status
		require.NoError(t, jobStore.Create(context.Background(), job))
	}

	// A job in another world must not leak into the counts
	other, err := domain.NewJob(otherWorldID, domain.JobKindSingleAsset, domain.AssetKindPortrait, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, jobStore.Create(context.Background(), other))

	status, err := svc.GetWorldStatus(context.Background(), worldID)
	require.NoError(t, err)

	assert.Equal(t, worldID, status.WorldID)
	assert.Equal(t, 2, status.Queued)
	assert.Equal(t, 1, status.Processing)
	assert.Equal(t, 3, status.Completed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1, status.Cancelled)
	assert.Equal(t, len(statuses), status.Total)
}

func TestJobService_GetWorldStatus_EmptyWorld(t *testing.T) {
	t.Parallel()

	svc := newTestJobService(t, newMockJobStore())

	status, err := svc.GetWorldStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, status.Total)
}

func TestJobService_GetWorldStatus_StoreFailure(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	jobStore.findJobsByWorldFn = func(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error) {
		return nil, errors.New("connection refused")
	}
	svc := newTestJobService(t, jobStore)

	_, err := svc.GetWorldStatus(context.Background(), uuid.New())
	require.Error(t, err)

	var serviceErr *JobServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "get_world_status", serviceErr.Operation)
}

func TestJobService_CreateJob_BatchParams(t *testing.T) {
	t.Parallel()

	jobStore := newMockJobStore()
	svc := newTestJobService(t, jobStore)

	targets := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	params, err := json.Marshal(map[string][]uuid.UUID{"target_ids": targets})
	require.NoError(t, err)

	job, err := svc.CreateJob(
		context.Background(),
		uuid.New(),
		domain.JobKindBatchGeneration,
		domain.AssetKindPortrait,
		uuid.Nil,
		params,
	)
	require.NoError(t, err)
	assert.Equal(t, len(targets), job.RequestedCount)
}
