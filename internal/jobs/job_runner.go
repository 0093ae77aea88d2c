// Package jobs holds the background maintenance tasks the scheduler runs.
package jobs

import (
	"context"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// RatingReconciler recomputes car ratings from reviewed bookings.
type RatingReconciler interface {
	ReconcileRatings(ctx context.Context) (int64, error)
}

// TokenPurger removes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	cars   RatingReconciler
	tokens TokenPurger
	now    func() time.Time
}

func NewJobRunner(cars RatingReconciler, tokens TokenPurger) *JobRunner {
	return &JobRunner{cars: cars, tokens: tokens, now: time.Now}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := jr.now()
	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName, "elapsed", time.Since(start).String())
}

// RunAll runs every job once, e.g. from a manual trigger.
func (jr *JobRunner) RunAll() {
	jr.ReconcileCarRatings()
	jr.PurgeExpiredTokens()
}
