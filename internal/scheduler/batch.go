package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// executeBatch processes a batch_generation job: its targets run
// sequentially in input order, each sub-target failure is tolerated, and
// fractional progress is republished after every attempt so observers see
// monotonically increasing progress even under partial failure.
//
// A batch that ran to completion is always marked completed, even when
// every sub-target failed; callers distinguish "never ran" from "ran with
// losses" by comparing the artifact count against the requested count. Only
// a missing or empty target list fails the job, before any generation call.
func (e *Executor) executeBatch(ctx context.Context, job *domain.Job, logger *slog.Logger) error {
	targets, err := job.TargetIDs()
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrMissingParameters, err)
	}

	total := len(targets)
	for i, targetID := range targets {
		e.generateBatchTarget(ctx, job, targetID, logger)

		progress := float64(i+1) / float64(total)
		if err := job.SetProgress(progress); err != nil {
			logger.Error("failed to advance progress", "error", err, "target_index", i)
		}
		e.publishProgress(ctx, job, logger)
	}

	return nil
}

// generateBatchTarget attempts one sub-target. Failures, including an
// unregistered asset kind, are logged and skipped; they never abort the
// batch.
func (e *Executor) generateBatchTarget(ctx context.Context, job *domain.Job, targetID uuid.UUID, logger *slog.Logger) {
	generator, err := e.registry.Resolve(job.AssetKind)
	if err != nil {
		logger.Warn("skipping batch target, no backend for asset kind",
			"target_id", targetID,
			"error", err)
		return
	}

	artifactID, err := generator.Generate(ctx, targetID, job.AssetKind, job.Params)
	if err != nil {
		logger.Warn("batch target generation failed, continuing",
			"target_id", targetID,
			"error", err)
		return
	}

	job.AppendArtifact(artifactID)
	logger.Debug("batch target generated",
		"target_id", targetID,
		"artifact_id", artifactID)
}

// publishProgress persists the job's current progress and result
// accumulator. Store errors are logged and tolerated; the next attempt
// republishes a superset of this state anyway.
func (e *Executor) publishProgress(ctx context.Context, job *domain.Job, logger *slog.Logger) {
	patch := store.JobPatch{
		Progress:       &job.Progress,
		ArtifactIDs:    job.ArtifactIDs,
		CompletedCount: &job.CompletedCount,
	}
	if _, err := e.store.Update(ctx, job.ID, patch); err != nil {
		logger.Error("failed to persist batch progress",
			"progress", job.Progress,
			"error", err)
	}
}
