package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"leasing-backoffice/internal/jobs"
	"leasing-backoffice/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. It
// fails if a configured cron expression does not parse.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Release vehicles the end-of-lease saga left bound
	if _, err := s.cron.AddFunc(cfg.ReconcileVehicleRelease, s.jobs.ReconcileVehicleRelease); err != nil {
		logger.Error("Failed to register ReconcileVehicleRelease job", "spec", cfg.ReconcileVehicleRelease, "error", err)
		return err
	}

	// Daily report of leases without a vehicle
	if _, err := s.cron.AddFunc(cfg.ReportUnallocatedLeases, s.jobs.ReportUnallocatedLeases); err != nil {
		logger.Error("Failed to register ReportUnallocatedLeases job", "spec", cfg.ReportUnallocatedLeases, "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
