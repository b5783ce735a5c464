package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"venue-approval-backend/internal/jobs"
	"venue-approval-backend/internal/logger"
)

// Scheduler runs the booking reconciliation jobs on their cron specs.
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
	log  *slog.Logger
}

type scheduledJob struct {
	name string
	spec string
	run  func()
}

// NewScheduler registers every reconciliation job of jobRunner. A run that is
// still in progress when its next tick fires makes that tick a no-op.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	log := logger.WithService("scheduler")
	cl := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs: jobRunner,
		log:  log,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler
	table := []scheduledJob{
		{name: "SyncBookingStatuses", spec: cfg.SyncBookingStatuses, run: s.jobs.SyncBookingStatuses},
		{name: "FindBookingConflicts", spec: cfg.ReconcileBookings, run: s.jobs.FindBookingConflicts},
	}

	for _, j := range table {
		id, err := s.cron.AddFunc(j.spec, j.run)
		if err != nil {
			s.log.Error("Failed to register job", "job", j.name, "spec", j.spec, "error", err)
			return fmt.Errorf("register %s: %w", j.name, err)
		}
		s.log.Debug("Job registered", "job", j.name, "spec", j.spec, "entryID", id)
	}

	s.log.Info("All cron jobs registered successfully", "jobs", len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) Start() {
	s.log.Info("Starting cron scheduler")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping cron scheduler")
	<-s.cron.Stop().Done()
	s.log.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// NextRun reports when the earliest registered job fires next. It is zero
// until the scheduler has been started.
func (s *Scheduler) NextRun() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
