// Package scheduler runs the rotation on a cron schedule for `tsm daemon`.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tsm-go/internal/tsm"
)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a standard five-field cron expression, e.g.
// "30 3 * * *" for every night at 03:30. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	schedule string
	job      Job
	logger   tsm.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a scheduler. The schedule is validated by Start.
func New(schedule string, job Job, logger tsm.Logger) *Scheduler {
	if logger == nil {
		logger = tsm.NewNopLogger()
	}
	cl := cronLogger{logger}
	return &Scheduler{
		schedule: schedule,
		job:      job,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start schedules the job and returns. The scheduler stops when ctx is
// cancelled or Stop is called; jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.schedule == "" {
		return &tsm.ConfigError{Field: "schedule", Reason: "must be specified"}
	}
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule rotation: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("scheduled rotation starting")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled rotation failed", "error", err)
		return
	}
	s.logger.Info("scheduled rotation finished")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run, or the zero time when the
// scheduler has not been started.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts tsm.Logger to cron.Logger.
type cronLogger struct {
	logger tsm.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
