package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func batchParamsJSON(t *testing.T, targets ...uuid.UUID) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string][]uuid.UUID{"target_ids": targets})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	return raw
}

func TestNewJob(t *testing.T) {
	t.Parallel()
	worldID := uuid.New()
	targetID := uuid.New()

	job, err := NewJob(worldID, JobKindSingleAsset, AssetKindPortrait, targetID, nil)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if job.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if job.WorldID != worldID {
		t.Errorf("Expected world ID %s, got %s", worldID, job.WorldID)
	}

	if job.Status != JobStatusQueued {
		t.Errorf("Expected status %s, got %s", JobStatusQueued, job.Status)
	}

	if job.RequestedCount != 1 {
		t.Errorf("Expected requested count 1, got %d", job.RequestedCount)
	}

	if job.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test invalid world ID
	_, err = NewJob(uuid.Nil, JobKindSingleAsset, AssetKindPortrait, targetID, nil)
	if !errors.Is(err, ErrEmptyWorldID) {
		t.Errorf("Expected error %v, got %v", ErrEmptyWorldID, err)
	}

	// Test missing target for single asset
	_, err = NewJob(worldID, JobKindSingleAsset, AssetKindPortrait, uuid.Nil, nil)
	if !errors.Is(err, ErrEmptyTargetID) {
		t.Errorf("Expected error %v, got %v", ErrEmptyTargetID, err)
	}

	// Test invalid kind
	_, err = NewJob(worldID, JobKind("mystery"), AssetKindPortrait, targetID, nil)
	if !errors.Is(err, ErrInvalidJobKind) {
		t.Errorf("Expected error %v, got %v", ErrInvalidJobKind, err)
	}

	// Test invalid asset kind
	_, err = NewJob(worldID, JobKindSingleAsset, AssetKind("hologram"), targetID, nil)
	if !errors.Is(err, ErrInvalidAssetKind) {
		t.Errorf("Expected error %v, got %v", ErrInvalidAssetKind, err)
	}
}

func TestNewJob_BatchRequestedCount(t *testing.T) {
	t.Parallel()
	targets := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	job, err := NewJob(
		uuid.New(),
		JobKindBatchGeneration,
		AssetKindTerrainMap,
		uuid.Nil,
		batchParamsJSON(t, targets...),
	)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if job.RequestedCount != len(targets) {
		t.Errorf("Expected requested count %d, got %d", len(targets), job.RequestedCount)
	}
}

func TestJobTargetIDs(t *testing.T) {
	t.Parallel()
	targets := []uuid.UUID{uuid.New(), uuid.New()}

	job := Job{
		ID:        uuid.New(),
		WorldID:   uuid.New(),
		Kind:      JobKindBatchGeneration,
		AssetKind: AssetKindPoliticalMap,
		Status:    JobStatusQueued,
		Params:    batchParamsJSON(t, targets...),
	}

	got, err := job.TargetIDs()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got) != 2 || got[0] != targets[0] || got[1] != targets[1] {
		t.Errorf("Expected targets %v in order, got %v", targets, got)
	}

	// Missing params
	job.Params = nil
	if _, err := job.TargetIDs(); !errors.Is(err, ErrMissingTargetList) {
		t.Errorf("Expected error %v, got %v", ErrMissingTargetList, err)
	}

	// Empty list
	job.Params = json.RawMessage(`{"target_ids": []}`)
	if _, err := job.TargetIDs(); !errors.Is(err, ErrMissingTargetList) {
		t.Errorf("Expected error %v, got %v", ErrMissingTargetList, err)
	}

	// Malformed bag
	job.Params = json.RawMessage(`{"target_ids": "oops"`)
	if _, err := job.TargetIDs(); !errors.Is(err, ErrMissingTargetList) {
		t.Errorf("Expected error %v, got %v", ErrMissingTargetList, err)
	}
}

func TestJobTransitions(t *testing.T) {
	t.Parallel()

	newQueuedJob := func() *Job {
		job, err := NewJob(uuid.New(), JobKindSingleAsset, AssetKindPortrait, uuid.New(), nil)
		if err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
		return job
	}

	t.Run("queued to processing to completed", func(t *testing.T) {
		t.Parallel()
		job := newQueuedJob()

		if err := job.MarkProcessing(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if job.StartedAt == nil {
			t.Error("Expected StartedAt to be stamped")
		}

		if err := job.MarkCompleted(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if job.Progress != 1.0 {
			t.Errorf("Expected progress 1.0, got %f", job.Progress)
		}
		if job.CompletedAt == nil {
			t.Error("Expected CompletedAt to be stamped")
		}
	})

	t.Run("queued to processing to failed", func(t *testing.T) {
		t.Parallel()
		job := newQueuedJob()

		if err := job.MarkProcessing(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if err := job.MarkFailed("backend exploded"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if job.ErrorMessage != "backend exploded" {
			t.Errorf("Expected verbatim error message, got %q", job.ErrorMessage)
		}
	})

	t.Run("queued to cancelled", func(t *testing.T) {
		t.Parallel()
		job := newQueuedJob()

		if err := job.MarkCancelled(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if job.CompletedAt == nil {
			t.Error("Expected CompletedAt to be stamped on cancellation")
		}

		// Second cancel must be rejected
		if err := job.MarkCancelled(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
		}
	})

	t.Run("cancel of processing job is rejected", func(t *testing.T) {
		t.Parallel()
		job := newQueuedJob()

		if err := job.MarkProcessing(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		err := job.MarkCancelled()
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
		}
		if job.Status != JobStatusProcessing {
			t.Errorf("Expected status unchanged, got %s", job.Status)
		}
	})

	t.Run("no transition leaves a terminal state", func(t *testing.T) {
		t.Parallel()
		for _, terminal := range []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled} {
			job := newQueuedJob()
			job.Status = terminal

			if !job.Terminal() {
				t.Errorf("Expected %s to be terminal", terminal)
			}
			if err := job.MarkProcessing(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("MarkProcessing from %s: expected %v, got %v", terminal, ErrInvalidTransition, err)
			}
			if err := job.MarkCompleted(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("MarkCompleted from %s: expected %v, got %v", terminal, ErrInvalidTransition, err)
			}
			if err := job.MarkFailed("x"); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("MarkFailed from %s: expected %v, got %v", terminal, ErrInvalidTransition, err)
			}
		}
	})
}

func TestJobProgressAndArtifacts(t *testing.T) {
	t.Parallel()
	job, err := NewJob(
		uuid.New(),
		JobKindBatchGeneration,
		AssetKindTextureVariants,
		uuid.Nil,
		batchParamsJSON(t, uuid.New(), uuid.New(), uuid.New(), uuid.New()),
	)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if err := job.MarkProcessing(); err != nil {
		t.Fatalf("failed to start job: %v", err)
	}

	// Progress is monotone non-decreasing
	for k := 1; k <= 4; k++ {
		if err := job.SetProgress(float64(k) / 4); err != nil {
			t.Fatalf("SetProgress(%d/4): %v", k, err)
		}
	}
	if err := job.SetProgress(0.5); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("Expected error %v on regression, got %v", ErrInvalidProgress, err)
	}
	if err := job.SetProgress(1.5); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("Expected error %v above 1.0, got %v", ErrInvalidProgress, err)
	}

	// Completed count mirrors accumulator length and keeps insertion order
	first, second := uuid.New(), uuid.New()
	job.AppendArtifact(first)
	job.AppendArtifact(second)
	if job.CompletedCount != 2 {
		t.Errorf("Expected completed count 2, got %d", job.CompletedCount)
	}
	if job.ArtifactIDs[0] != first || job.ArtifactIDs[1] != second {
		t.Errorf("Expected artifacts in insertion order, got %v", job.ArtifactIDs)
	}
}

func TestJobPartial(t *testing.T) {
	t.Parallel()
	job := Job{
		ID:             uuid.New(),
		WorldID:        uuid.New(),
		Kind:           JobKindBatchGeneration,
		AssetKind:      AssetKindPortrait,
		Status:         JobStatusCompleted,
		RequestedCount: 3,
		CompletedCount: 2,
	}

	if !job.Partial() {
		t.Error("Expected job with losses to report partial")
	}

	job.CompletedCount = 3
	if job.Partial() {
		t.Error("Expected fully completed job to not report partial")
	}

	job.Status = JobStatusFailed
	job.CompletedCount = 0
	if job.Partial() {
		t.Error("Expected failed job to not report partial")
	}
}
