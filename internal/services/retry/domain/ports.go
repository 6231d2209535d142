// Package domain defines the retry scheduler contract
package domain

import (
	"context"
	"time"
)

// SweepStats summarizes one scheduler pass
type SweepStats struct {
	Selected  int
	Recovered int
	Deferred  int
	Abandoned int
}

// SchedulerPort drives failed events back through the write path
type SchedulerPort interface {
	// Sweep runs one pass: select due rows, reattempt each, then delete
	// recovered rows and push the rest further out on the backoff curve
	Sweep(ctx context.Context, now time.Time) (SweepStats, error)

	// Run sweeps on a ticker until ctx is done
	Run(ctx context.Context) error
}
