package jobs

import (
	"context"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
)

// ReconcileCarRatings rewrites car rating averages and counts that drifted
// from the reviews stored on completed bookings.
func (jr *JobRunner) ReconcileCarRatings() {
	jr.runWithRecovery("ReconcileCarRatings", func(ctx context.Context) {
		n, err := jr.cars.ReconcileRatings(ctx)
		if err != nil {
			logger.Error("Failed to reconcile car ratings", "error", err)
			return
		}
		if n > 0 {
			logger.Warn("Car ratings corrected", "cars", n)
		}
	})
}

// PurgeExpiredTokens deletes refresh tokens that expired or were revoked
// more than a day ago.
func (jr *JobRunner) PurgeExpiredTokens() {
	jr.runWithRecovery("PurgeExpiredTokens", func(ctx context.Context) {
		cutoff := jr.now().UTC().AddDate(0, 0, -1)
		n, err := jr.tokens.PurgeExpired(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge refresh tokens", "error", err)
			return
		}
		logger.Info("Refresh tokens purged", "deleted", n)
	})
}
