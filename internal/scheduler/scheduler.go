package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventwarden/internal/jobs"
	"eventwarden/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner

	mu      sync.Mutex
	sweepID cron.EntryID
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	c := cron.New(cron.WithLocation(time.UTC))

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	interval := s.jobs.Config().SweepInterval()

	id, err := s.cron.AddFunc(everySpec(interval), s.jobs.RunVerificationSweep)
	if err != nil {
		logger.Error("Failed to register RunVerificationSweep job", "error", err)
		return
	}
	s.sweepID = id

	logger.Info("Verification sweep registered", "interval", interval)
}

// Start begins the cron scheduler and fires an immediate first sweep so
// a restart does not wait a full interval before verifying.
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	go s.jobs.RunVerificationSweep()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for a running sweep
// to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// ReloadInterval replaces the sweep schedule at runtime. Intervals below
// one minute are rejected.
func (s *Scheduler) ReloadInterval(interval time.Duration) error {
	if interval < time.Minute {
		return fmt.Errorf("sweep interval must be at least one minute, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(everySpec(interval), s.jobs.RunVerificationSweep)
	if err != nil {
		return fmt.Errorf("failed to register new sweep schedule: %w", err)
	}
	s.cron.Remove(s.sweepID)
	s.sweepID = id

	logger.Info("Sweep interval reloaded", "interval", interval)
	return nil
}

func everySpec(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}
