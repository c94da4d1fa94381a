package jobs

import (
	"log/slog"
	"time"

	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	leases service.LeaseService
	alerts service.AlertService
	config *config.Config
	now    func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(leases service.LeaseService, alerts service.AlertService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		leases: leases,
		alerts: alerts,
		config: cfg,
		now:    time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// log tags every job record so job output can be separated from the API's
// when both write to the same sink.
func (jr *JobRunner) log() *slog.Logger {
	return logger.WithService("jobs")
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			jr.log().Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	jr.log().Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc()
	jr.log().Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReconcileVehicleRelease()
	jr.ReportUnallocatedLeases()
}
