package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// AdmissionController enforces a fixed upper bound on the number of jobs
// simultaneously executing within this process. It tracks the IDs of
// in-flight jobs; admission establishes exclusive ownership of a job's
// execution. Executions run on separate goroutines, so the check-and-add is
// guarded by a mutex to keep the bound exact under races.
type AdmissionController struct {
	mu       sync.Mutex
	limit    int
	inFlight map[uuid.UUID]struct{}
}

// NewAdmissionController creates an admission controller bounding execution
// to limit concurrent jobs. A non-positive limit falls back to 1.
func NewAdmissionController(limit int) *AdmissionController {
	if limit <= 0 {
		limit = 1
	}
	return &AdmissionController{
		limit:    limit,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// TryAdmit reserves a concurrency slot for the given job.
// It succeeds iff the current in-flight count is below the bound; on success
// the job ID is recorded and true is returned. Admitting an ID that is
// already in flight fails, so no two executors ever own the same job.
func (a *AdmissionController) TryAdmit(jobID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.inFlight) >= a.limit {
		return false
	}
	if _, exists := a.inFlight[jobID]; exists {
		return false
	}

	a.inFlight[jobID] = struct{}{}
	return true
}

// Release frees the slot held by the given job. Releasing a job that is not
// in flight is a no-op, making Release idempotent.
func (a *AdmissionController) Release(jobID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, jobID)
}

// InFlight returns the number of jobs currently holding a slot.
func (a *AdmissionController) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inFlight)
}

// Limit returns the configured concurrency bound.
func (a *AdmissionController) Limit() int {
	return a.limit
}
