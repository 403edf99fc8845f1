package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// Config holds configuration for the scheduler.
type Config struct {
	// MaxConcurrentJobs bounds how many jobs may execute concurrently
	// within this process.
	MaxConcurrentJobs int

	// PollInterval is how often the scheduler scans the store for queued jobs.
	PollInterval time.Duration

	// JobTimeout caps a single job's execution so a hung backend call
	// cannot hold a concurrency slot forever. Zero disables the cap.
	JobTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 3,
		PollInterval:      2 * time.Second,
		JobTimeout:        10 * time.Minute,
	}
}

// Scheduler discovers queued jobs by polling the store and executes them
// under a global concurrency bound. Each tick scans worlds in enumeration
// order and admits queued jobs until capacity is exhausted; admitted jobs
// run on their own goroutine so the poll loop never blocks on execution.
type Scheduler struct {
	store     store.JobStore
	admission *AdmissionController
	executor  *Executor
	config    Config
	logger    *slog.Logger

	// mu guards the running flag and cancel function so Start and Stop
	// stay idempotent under concurrent calls.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// loopWG tracks the poll loop goroutine; execWG tracks dispatched
	// executions, which are allowed to outlive the loop.
	loopWG sync.WaitGroup
	execWG sync.WaitGroup
}

// New creates a Scheduler polling the given store and dispatching work
// through the given generator registry.
func New(jobStore store.JobStore, registry *generation.Registry, config Config, logger *slog.Logger) *Scheduler {
	if config.MaxConcurrentJobs <= 0 {
		logger.Warn("invalid concurrency bound specified, using default",
			"specified", config.MaxConcurrentJobs,
			"default", DefaultConfig().MaxConcurrentJobs)
		config.MaxConcurrentJobs = DefaultConfig().MaxConcurrentJobs
	}
	if config.PollInterval <= 0 {
		logger.Warn("invalid poll interval specified, using default",
			"specified", config.PollInterval,
			"default", DefaultConfig().PollInterval)
		config.PollInterval = DefaultConfig().PollInterval
	}

	admission := NewAdmissionController(config.MaxConcurrentJobs)

	return &Scheduler{
		store:     jobStore,
		admission: admission,
		executor:  NewExecutor(jobStore, registry, config.JobTimeout, logger),
		config:    config,
		logger:    logger,
	}
}

// Start begins the poll loop. Starting an already-running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug("scheduler already running, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.loopWG.Add(1)
	go s.run(ctx)

	s.logger.Info("scheduler started",
		"max_concurrent_jobs", s.config.MaxConcurrentJobs,
		"poll_interval", s.config.PollInterval)
}

// Stop halts the poll loop and waits for it to exit. Executions that were
// already dispatched are not aborted; they run to completion on their own
// goroutines. Stopping an already-stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.loopWG.Wait()

	s.logger.Info("scheduler stopped", "in_flight", s.admission.InFlight())
}

// Drain blocks until every dispatched execution has finished. Intended for
// tests and graceful shutdown paths that want to observe final job states.
func (s *Scheduler) Drain() {
	s.execWG.Wait()
}

// InFlight returns the number of jobs currently executing.
func (s *Scheduler) InFlight() int {
	return s.admission.InFlight()
}

// run is the poll loop. It ticks at the configured interval until the
// context is cancelled. A tick's failure never stops the schedule; the next
// tick always runs, so transient store errors heal on the following
// interval without backoff.
func (s *Scheduler) run(ctx context.Context) {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("poll loop stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick scans for queued jobs and admits them until capacity is exhausted.
// Worlds are scanned in the store's enumeration order and each world's
// queued jobs in the store's natural order; the first admission miss ends
// the scan for this tick entirely rather than skipping ahead to other
// worlds. Fairness is therefore "whoever enumerates first", an accepted
// simplification for this single-process scheduler.
func (s *Scheduler) tick(ctx context.Context) {
	worlds, err := s.store.ListWorlds(ctx)
	if err != nil {
		s.logger.Error("failed to list worlds, will retry next tick", "error", err)
		return
	}

	for _, worldID := range worlds {
		jobs, err := s.store.FindJobsByStatus(ctx, worldID, domain.JobStatusQueued)
		if err != nil {
			s.logger.Error("failed to list queued jobs, will retry next tick",
				"world_id", worldID,
				"error", err)
			return
		}

		for _, job := range jobs {
			if !s.admission.TryAdmit(job.ID) {
				s.logger.Debug("concurrency capacity reached, ending scan",
					"in_flight", s.admission.InFlight())
				return
			}
			s.dispatch(job)
		}
	}
}

// dispatch launches the execution of an admitted job on its own goroutine.
// The slot is released in the execution's deferred cleanup regardless of
// outcome, and execution failures never propagate back into the loop.
func (s *Scheduler) dispatch(job *domain.Job) {
	s.logger.Info("job admitted",
		"job_id", job.ID,
		"world_id", job.WorldID,
		"kind", job.Kind,
		"asset_kind", job.AssetKind,
		"in_flight", s.admission.InFlight())

	s.execWG.Add(1)
	go func() {
		defer s.execWG.Done()
		defer s.admission.Release(job.ID)

		// Executions deliberately do not inherit the loop context: stopping
		// the scheduler must not abort work that was already dispatched.
		s.executor.Execute(context.Background(), job)
	}()
}
