package jobs

import (
	"context"

	"eventwarden/internal/logger"
)

// RunVerificationSweep executes one compliance sweep over every active
// event session.
func (jr *JobRunner) RunVerificationSweep() {
	jr.runWithRecovery("RunVerificationSweep", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jr.config.SweepInterval())
		defer cancel()

		if err := jr.services.Verification.RunChecks(ctx); err != nil {
			logger.Error("Verification sweep failed", "error", err)
		}
	})
}
