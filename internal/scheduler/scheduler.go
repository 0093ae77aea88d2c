// Package scheduler runs maintenance jobs on cron schedules.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/jobs"
	"github.com/iliyamo/car-rental-marketplace/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// New registers the configured jobs on a UTC, seconds-precision cron.
// An invalid spec is an error so misconfiguration shows up at startup.
func New(cfg config.JobsConfig, runner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)
	s := &Scheduler{cron: c, jobs: runner}

	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"ReconcileCarRatings", cfg.RatingReconcile, runner.ReconcileCarRatings},
		{"PurgeExpiredTokens", cfg.TokenPurge, runner.PurgeExpiredTokens},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			return nil, fmt.Errorf("register %s (%q): %w", e.name, e.spec, err)
		}
	}
	logger.Info("Cron jobs registered", "count", len(s.cron.Entries()))
	return s, nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Cron scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
