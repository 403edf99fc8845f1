package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// Executor runs one admitted job through its lifecycle: queued to
// processing, dispatch by (kind, asset kind), and fold the outcome back
// into the job record. There is no synchronous caller to report to, so
// every failure surfaces exclusively through the job's status and error
// message fields.
type Executor struct {
	store    store.JobStore
	registry *generation.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewExecutor creates an Executor persisting through jobStore and resolving
// generation backends through registry. timeout caps a single job's
// execution; zero disables the cap.
func NewExecutor(jobStore store.JobStore, registry *generation.Registry, timeout time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		store:    jobStore,
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute runs a single admitted job to a terminal state. The caller owns
// slot release; Execute owns every job record mutation from here on.
func (e *Executor) Execute(ctx context.Context, job *domain.Job) {
	logger := e.logger.With(
		"job_id", job.ID,
		"world_id", job.WorldID,
		"kind", job.Kind,
		"asset_kind", job.AssetKind,
	)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// Re-fetch so a job cancelled between the poll scan and this point is
	// never started. The store is the single source of truth for status.
	current, err := e.store.GetByID(ctx, job.ID)
	if err != nil {
		logger.Error("failed to re-fetch job before execution", "error", err)
		return
	}
	if current.Status != domain.JobStatusQueued {
		logger.Info("job no longer queued, skipping execution", "status", current.Status)
		return
	}
	job = current

	if err := e.markProcessing(ctx, job); err != nil {
		logger.Error("failed to transition job to processing", "error", err)
		return
	}

	logger.Info("processing job")

	var execErr error
	switch job.Kind {
	case domain.JobKindSingleAsset:
		execErr = e.executeSingle(ctx, job, logger)
	case domain.JobKindBatchGeneration:
		execErr = e.executeBatch(ctx, job, logger)
	default:
		execErr = fmt.Errorf("%w: job kind %s", generation.ErrUnsupportedKind, job.Kind)
	}

	if execErr != nil {
		logger.Error("job execution failed", "error", execErr)
		e.finalizeFailed(ctx, job, execErr, logger)
		return
	}

	e.finalizeCompleted(ctx, job, logger)
	logger.Info("job completed",
		"artifacts", job.CompletedCount,
		"requested", job.RequestedCount,
		"partial", job.Partial())
}

// executeSingle produces the one asset a single_asset job asks for.
// A missing target ID or unregistered asset kind is a hard failure.
func (e *Executor) executeSingle(ctx context.Context, job *domain.Job, logger *slog.Logger) error {
	if job.TargetID == uuid.Nil {
		return fmt.Errorf("%w: single asset job requires a target ID", generation.ErrMissingParameters)
	}

	generator, err := e.registry.Resolve(job.AssetKind)
	if err != nil {
		return err
	}

	artifactID, err := generator.Generate(ctx, job.TargetID, job.AssetKind, job.Params)
	if err != nil {
		return err
	}

	job.AppendArtifact(artifactID)
	logger.Debug("asset generated", "artifact_id", artifactID)
	return nil
}

// markProcessing transitions the job record to processing and persists the
// new status and start time.
func (e *Executor) markProcessing(ctx context.Context, job *domain.Job) error {
	if err := job.MarkProcessing(); err != nil {
		return err
	}

	patch := store.JobPatch{
		Status:    &job.Status,
		StartedAt: job.StartedAt,
	}
	if _, err := e.store.Update(ctx, job.ID, patch); err != nil {
		return fmt.Errorf("failed to persist processing status: %w", err)
	}
	return nil
}

// finalizeCompleted folds a successful outcome into the job record.
func (e *Executor) finalizeCompleted(ctx context.Context, job *domain.Job, logger *slog.Logger) {
	if err := job.MarkCompleted(); err != nil {
		logger.Error("failed to transition job to completed", "error", err)
		return
	}

	patch := store.JobPatch{
		Status:         &job.Status,
		Progress:       &job.Progress,
		ArtifactIDs:    job.ArtifactIDs,
		CompletedCount: &job.CompletedCount,
		CompletedAt:    job.CompletedAt,
	}
	if _, err := e.store.Update(ctx, job.ID, patch); err != nil {
		logger.Error("failed to persist completed status", "error", err)
	}
}

// finalizeFailed folds an execution error into the job record, passing the
// backend's message through verbatim.
func (e *Executor) finalizeFailed(ctx context.Context, job *domain.Job, execErr error, logger *slog.Logger) {
	if err := job.MarkFailed(execErr.Error()); err != nil {
		logger.Error("failed to transition job to failed", "error", err)
		return
	}

	patch := store.JobPatch{
		Status:       &job.Status,
		ErrorMessage: &job.ErrorMessage,
		CompletedAt:  job.CompletedAt,
	}
	if _, err := e.store.Update(ctx, job.ID, patch); err != nil {
		logger.Error("failed to persist failed status", "error", err)
	}
}
