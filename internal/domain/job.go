package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobKind identifies the shape of work a job represents.
type JobKind string

// Possible job kinds
const (
	JobKindSingleAsset     JobKind = "single_asset"
	JobKindBatchGeneration JobKind = "batch_generation"
)

// AssetKind identifies the category of asset a job produces.
type AssetKind string

// Possible asset kinds
const (
	AssetKindPortrait         AssetKind = "portrait"
	AssetKindBuildingExterior AssetKind = "building_exterior"
	AssetKindTerrainMap       AssetKind = "terrain_map"
	AssetKindPoliticalMap     AssetKind = "political_map"
	AssetKindTextureVariants  AssetKind = "texture_variants"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

// Possible job status values
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// batchParams is the only slice of the parameter bag the scheduler is
// allowed to interpret: the ordered target-entity list for batch jobs.
// Everything else in Params passes through to the generation backend.
type batchParams struct {
	TargetIDs []uuid.UUID `json:"target_ids"`
}

// Job represents a unit of asynchronous generation work owned by a world.
// Jobs are created in the queued state by the requesting feature and are
// mutated exclusively by the scheduler from then on.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	WorldID        uuid.UUID       `json:"world_id"`
	Kind           JobKind         `json:"kind"`
	AssetKind      AssetKind       `json:"asset_kind"`
	TargetID       uuid.UUID       `json:"target_id,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Status         JobStatus       `json:"status"`
	Progress       float64         `json:"progress"`
	ArtifactIDs    []uuid.UUID     `json:"artifact_ids,omitempty"`
	CompletedCount int             `json:"completed_count"`
	RequestedCount int             `json:"requested_count"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// NewJob creates a new Job in the queued state for the given world.
// For single_asset jobs targetID names the entity the asset is generated
// for. For batch_generation jobs the target list is carried opaquely in
// params and targetID should be uuid.Nil.
// Returns an error if validation fails.
func NewJob(
	worldID uuid.UUID,
	kind JobKind,
	assetKind AssetKind,
	targetID uuid.UUID,
	params json.RawMessage,
) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		WorldID:   worldID,
		Kind:      kind,
		AssetKind: assetKind,
		TargetID:  targetID,
		Params:    params,
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if kind == JobKindBatchGeneration {
		if targets, err := job.TargetIDs(); err == nil {
			job.RequestedCount = len(targets)
		}
	} else if targetID != uuid.Nil {
		job.RequestedCount = 1
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.WorldID == uuid.Nil {
		return ErrEmptyWorldID
	}

	if !isValidJobKind(j.Kind) {
		return ErrInvalidJobKind
	}

	if !IsValidAssetKind(j.AssetKind) {
		return ErrInvalidAssetKind
	}

	if j.Kind == JobKindSingleAsset && j.TargetID == uuid.Nil {
		return ErrEmptyTargetID
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// TargetIDs extracts the ordered target-entity list from the parameter bag.
// Only batch_generation jobs carry one; the rest of the bag is never
// interpreted here.
func (j *Job) TargetIDs() ([]uuid.UUID, error) {
	if len(j.Params) == 0 {
		return nil, ErrMissingTargetList
	}

	var params batchParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTargetList, err)
	}

	if len(params.TargetIDs) == 0 {
		return nil, ErrMissingTargetList
	}

	return params.TargetIDs, nil
}

// Terminal reports whether the job has reached a terminal status.
// No transition is ever permitted out of a terminal status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Partial reports whether a completed job produced fewer artifacts than it
// was asked for. A batch that ran to completion with sub-target losses is
// still completed; this is the derived indicator callers use to tell "ran
// with some losses" apart from true success.
func (j *Job) Partial() bool {
	return j.Status == JobStatusCompleted && j.CompletedCount < j.RequestedCount
}

// MarkProcessing transitions the job from queued to processing and stamps
// the start time. Returns ErrInvalidTransition from any other state.
func (j *Job) MarkProcessing() error {
	if j.Status != JobStatusQueued {
		return fmt.Errorf("%w: cannot start %s job %s", ErrInvalidTransition, j.Status, j.ID)
	}

	now := time.Now().UTC()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	return nil
}

// MarkCompleted transitions the job from processing to completed, forcing
// progress to 1.0 and stamping the completion time.
func (j *Job) MarkCompleted() error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("%w: cannot complete %s job %s", ErrInvalidTransition, j.Status, j.ID)
	}

	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Progress = 1.0
	j.CompletedAt = &now
	return nil
}

// MarkFailed transitions the job from processing to failed, recording the
// error message verbatim and stamping the completion time.
func (j *Job) MarkFailed(message string) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("%w: cannot fail %s job %s", ErrInvalidTransition, j.Status, j.ID)
	}

	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
	return nil
}

// MarkCancelled transitions the job from queued to cancelled. Cancellation
// of a processing or terminal job is rejected.
func (j *Job) MarkCancelled() error {
	switch j.Status {
	case JobStatusQueued:
		now := time.Now().UTC()
		j.Status = JobStatusCancelled
		j.CompletedAt = &now
		return nil
	case JobStatusProcessing:
		return fmt.Errorf("%w: cannot cancel a running job", ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: can only cancel queued jobs", ErrInvalidTransition)
	}
}

// AppendArtifact records a produced artifact id in completion order and
// keeps the completed-count mirror in sync with the accumulator length.
func (j *Job) AppendArtifact(artifactID uuid.UUID) {
	j.ArtifactIDs = append(j.ArtifactIDs, artifactID)
	j.CompletedCount = len(j.ArtifactIDs)
}

// SetProgress updates the progress fraction. Progress never moves backwards
// while a job is processing.
func (j *Job) SetProgress(progress float64) error {
	if progress < 0 || progress > 1 {
		return ErrInvalidProgress
	}
	if progress < j.Progress {
		return ErrInvalidProgress
	}
	j.Progress = progress
	return nil
}

// isValidJobKind checks if the given kind is a valid JobKind.
func isValidJobKind(kind JobKind) bool {
	switch kind {
	case JobKindSingleAsset, JobKindBatchGeneration:
		return true
	default:
		return false
	}
}

// IsValidAssetKind checks if the given kind is a valid AssetKind.
func IsValidAssetKind(kind AssetKind) bool {
	switch kind {
	case AssetKindPortrait, AssetKindBuildingExterior, AssetKindTerrainMap,
		AssetKindPoliticalMap, AssetKindTextureVariants:
		return true
	default:
		return false
	}
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
