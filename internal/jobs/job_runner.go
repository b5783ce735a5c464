package jobs

import (
	"venue-approval-backend/internal/config"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
	"venue-approval-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	bookings service.BookingManager
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, bookings service.BookingManager, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		bookings: bookings,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every reconciliation job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SyncBookingStatuses()
	jr.FindBookingConflicts()
}
