package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/loreforge-api/internal/api/shared"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/service"
)

// CreateJobRequest is the request body for submitting a generation job.
type CreateJobRequest struct {
	WorldID   string          `json:"world_id" validate:"required,uuid"`
	Kind      string          `json:"kind" validate:"required,oneof=single_asset batch_generation"`
	AssetKind string          `json:"asset_kind" validate:"required"`
	TargetID  string          `json:"target_id,omitempty" validate:"omitempty,uuid"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// JobResponse is the API representation of a job. Progress is reported as a
// fraction in [0,1]; completed/requested counts expose batch progress as k/M.
type JobResponse struct {
	ID             string          `json:"id"`
	WorldID        string          `json:"world_id"`
	Kind           string          `json:"kind"`
	AssetKind      string          `json:"asset_kind"`
	TargetID       string          `json:"target_id,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Status         string          `json:"status"`
	Progress       float64         `json:"progress"`
	ArtifactIDs    []string        `json:"artifact_ids"`
	CompletedCount int             `json:"completed_count"`
	RequestedCount int             `json:"requested_count"`
	Partial        bool            `json:"partial"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// JobHandler handles job-related HTTP requests.
type JobHandler struct {
	jobService service.JobService
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler with the given job service.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validator.New(),
	}
}

// CreateJob handles POST /api/jobs.
// It validates the request, persists the job in the queued state, and returns
// 202 Accepted with the job record. Execution happens asynchronously.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	worldID, err := uuid.Parse(req.WorldID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid world ID format")
		return
	}

	// target_id is optional for batch jobs; the target list lives in params
	targetID := uuid.Nil
	if req.TargetID != "" {
		targetID, err = uuid.Parse(req.TargetID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid target ID format")
			return
		}
	}

	job, err := h.jobService.CreateJob(
		r.Context(),
		worldID,
		domain.JobKind(req.Kind),
		domain.AssetKind(req.AssetKind),
		targetID,
		req.Params,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job, err := h.jobService.GetJob(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// CancelJob handles POST /api/jobs/{id}/cancel.
// Only queued jobs can be cancelled; a processing or terminal job yields 409.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job, err := h.jobService.CancelJob(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// GetWorldStatus handles GET /api/worlds/{worldID}/jobs/status.
func (h *JobHandler) GetWorldStatus(w http.ResponseWriter, r *http.Request) {
	worldID, err := uuid.Parse(chi.URLParam(r, "worldID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid world ID format")
		return
	}

	status, err := h.jobService.GetWorldStatus(r.Context(), worldID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// jobToResponse converts a domain job to its API representation.
func jobToResponse(job *domain.Job) JobResponse {
	resp := JobResponse{
		ID:             job.ID.String(),
		WorldID:        job.WorldID.String(),
		Kind:           string(job.Kind),
		AssetKind:      string(job.AssetKind),
		Params:         job.Params,
		Status:         string(job.Status),
		Progress:       job.Progress,
		ArtifactIDs:    make([]string, 0, len(job.ArtifactIDs)),
		CompletedCount: job.CompletedCount,
		RequestedCount: job.RequestedCount,
		Partial:        job.Partial(),
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
	}

	if job.TargetID != uuid.Nil {
		resp.TargetID = job.TargetID.String()
	}

	for _, id := range job.ArtifactIDs {
		resp.ArtifactIDs = append(resp.ArtifactIDs, id.String())
	}

	return resp
}
