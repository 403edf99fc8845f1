package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// WorldJobStatus aggregates a world's jobs by status. Counts always sum to
// Total, so callers can render a dashboard from a single call.
type WorldJobStatus struct {
	WorldID    uuid.UUID `json:"world_id"`
	Queued     int       `json:"queued"`
	Processing int       `json:"processing"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Cancelled  int       `json:"cancelled"`
	Total      int       `json:"total"`
}

// JobService provides job-related operations for the API layer: submitting
// generation requests, inspecting them, and cancelling queued ones. Execution
// itself belongs to the scheduler; the service never transitions a job beyond
// queued or cancelled.
type JobService interface {
	// CreateJob validates and persists a new generation request in the
	// queued state. The scheduler picks it up on its next poll.
	CreateJob(
		ctx context.Context,
		worldID uuid.UUID,
		kind domain.JobKind,
		assetKind domain.AssetKind,
		targetID uuid.UUID,
		params json.RawMessage,
	) (*domain.Job, error)

	// GetJob retrieves a job by its ID.
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)

	// CancelJob cancels a job that has not started executing. Jobs that are
	// already processing or terminal return domain.ErrInvalidTransition.
	CancelJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)

	// GetWorldStatus returns the per-status job counts for a world.
	GetWorldStatus(ctx context.Context, worldID uuid.UUID) (*WorldJobStatus, error)
}

// JobServiceError wraps errors from the job service with context.
type JobServiceError struct {
	// Operation is the operation that failed (e.g., "create_job", "cancel_job")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for JobServiceError.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}

// NewJobServiceError creates a new JobServiceError.
// It returns known sentinel errors directly without wrapping.
func NewJobServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	// Sentinels the API layer matches with errors.Is pass through unchanged
	if errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, store.ErrJobNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}

	return &JobServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// jobServiceImpl implements the JobService interface
type jobServiceImpl struct {
	jobStore store.JobStore
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
// It returns an error if the job store is nil.
func NewJobService(jobStore store.JobStore, logger *slog.Logger) (JobService, error) {
	if jobStore == nil {
		return nil, &JobServiceError{
			Operation: "create_service",
			Message:   "jobStore cannot be nil",
			Err:       nil,
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobStore: jobStore,
		logger:   logger.With("component", "job_service"),
	}, nil
}

// CreateJob validates and persists a new generation request.
func (s *jobServiceImpl) CreateJob(
	ctx context.Context,
	worldID uuid.UUID,
	kind domain.JobKind,
	assetKind domain.AssetKind,
	targetID uuid.UUID,
	params json.RawMessage,
) (*domain.Job, error) {
	job, err := domain.NewJob(worldID, kind, assetKind, targetID, params)
	if err != nil {
		s.logger.Error("failed to create job object",
			"error", err,
			"world_id", worldID,
			"kind", kind,
			"asset_kind", assetKind)
		return nil, NewJobServiceError("create_job", "failed to create job object", err)
	}

	if err := s.jobStore.Create(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			"error", err,
			"job_id", job.ID,
			"world_id", worldID)
		return nil, NewJobServiceError("create_job", "failed to save job", err)
	}

	s.logger.Info("job created and queued",
		"job_id", job.ID,
		"world_id", worldID,
		"kind", kind,
		"asset_kind", assetKind,
		"requested_count", job.RequestedCount)

	return job, nil
}

// GetJob retrieves a job by its ID.
func (s *jobServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to retrieve job",
			"error", err,
			"job_id", jobID)
		return nil, NewJobServiceError("get_job", "failed to retrieve job", err)
	}

	return job, nil
}

// CancelJob cancels a queued job. The queued-only rule is enforced by the
// domain transition, so a job the scheduler has already started (or finished)
// is rejected with domain.ErrInvalidTransition regardless of timing.
func (s *jobServiceImpl) CancelJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to retrieve job for cancellation",
			"error", err,
			"job_id", jobID)
		return nil, NewJobServiceError("cancel_job", "failed to retrieve job", err)
	}

	if err := job.MarkCancelled(); err != nil {
		s.logger.Warn("job cancellation rejected",
			"error", err,
			"job_id", jobID,
			"status", job.Status)
		return nil, NewJobServiceError("cancel_job", "cancellation rejected", err)
	}

	cancelled, err := s.jobStore.Update(ctx, jobID, store.JobPatch{
		Status:      &job.Status,
		CompletedAt: job.CompletedAt,
	})
	if err != nil {
		s.logger.Error("failed to save cancelled job",
			"error", err,
			"job_id", jobID)
		return nil, NewJobServiceError("cancel_job", "failed to save cancelled job", err)
	}

	s.logger.Info("job cancelled",
		"job_id", jobID,
		"world_id", cancelled.WorldID)

	return cancelled, nil
}

// GetWorldStatus returns the per-status job counts for a world.
func (s *jobServiceImpl) GetWorldStatus(ctx context.Context, worldID uuid.UUID) (*WorldJobStatus, error) {
	jobs, err := s.jobStore.FindJobsByWorld(ctx, worldID)
	if err != nil {
		s.logger.Error("failed to list jobs for world",
			"error", err,
			"world_id", worldID)
		return nil, NewJobServiceError("get_world_status", "failed to list jobs", err)
	}

	status := &WorldJobStatus{WorldID: worldID, Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case domain.JobStatusQueued:
			status.Queued++
		case domain.JobStatusProcessing:
			status.Processing++
		case domain.JobStatusCompleted:
			status.Completed++
		case domain.JobStatusFailed:
			status.Failed++
		case domain.JobStatusCancelled:
			status.Cancelled++
		}
	}

	return status, nil
}
