package scheduler

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAdmissionController_Bound(t *testing.T) {
	t.Parallel()

	admission := NewAdmissionController(3)

	first, second, third, fourth := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	assert.True(t, admission.TryAdmit(first))
	assert.True(t, admission.TryAdmit(second))
	assert.True(t, admission.TryAdmit(third))
	assert.Equal(t, 3, admission.InFlight())

	// Capacity reached
	assert.False(t, admission.TryAdmit(fourth))

	// A released slot can be reused
	admission.Release(second)
	assert.Equal(t, 2, admission.InFlight())
	assert.True(t, admission.TryAdmit(fourth))
}

func TestAdmissionController_DuplicateAdmission(t *testing.T) {
	t.Parallel()

	admission := NewAdmissionController(3)
	jobID := uuid.New()

	assert.True(t, admission.TryAdmit(jobID))
	assert.False(t, admission.TryAdmit(jobID), "the same job must never be admitted twice")
	assert.Equal(t, 1, admission.InFlight())
}

func TestAdmissionController_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	admission := NewAdmissionController(1)
	jobID := uuid.New()

	assert.True(t, admission.TryAdmit(jobID))
	admission.Release(jobID)
	admission.Release(jobID)
	admission.Release(uuid.New()) // never admitted
	assert.Equal(t, 0, admission.InFlight())
}

func TestAdmissionController_InvalidLimit(t *testing.T) {
	t.Parallel()

	admission := NewAdmissionController(0)
	assert.Equal(t, 1, admission.Limit())

	admission = NewAdmissionController(-5)
	assert.Equal(t, 1, admission.Limit())
}

// TestAdmissionController_ConcurrentAdmission hammers TryAdmit from many
// goroutines and verifies the bound holds exactly.
func TestAdmissionController_ConcurrentAdmission(t *testing.T) {
	t.Parallel()

	const limit = 4
	const attempts = 100

	admission := NewAdmissionController(limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if admission.TryAdmit(uuid.New()) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted, "exactly limit admissions must succeed")
	assert.Equal(t, limit, admission.InFlight())
}
