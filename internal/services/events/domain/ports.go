package domain

import (
	"context"
	"time"
)

// WriterPort persists events and owns failure capture
type WriterPort interface {
	// StoreOne persists a single event. Failures are captured to the retry
	// store before the error is returned
	StoreOne(ctx context.Context, e Event) (StoreResult, error)

	// StoreBatch persists events in transactional chunks with per event
	// outcomes. A nil error means every failed event was captured to the
	// retry store; a non nil error means the caller still owns the batch
	StoreBatch(ctx context.Context, xs []Event) (BatchResult, error)

	// Reattempt retries a previously failed event without touching the
	// retry store; the retry scheduler owns that row's lifecycle
	Reattempt(ctx context.Context, e Event) (StoreResult, error)

	// ArchiveBefore deletes stored events older than cutoff and returns
	// the number of rows removed
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetryPort drives the failed event lifecycle
type RetryPort interface {
	SelectRetryEligible(ctx context.Context, now time.Time, limit int) ([]FailedEvent, error)
	UpdateFailed(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errMsg string) error
	DeleteFailed(ctx context.Context, id string) error
	ListAbandoned(ctx context.Context, limit int) ([]FailedEvent, error)
}

// MetricsPort reads aggregate counters
type MetricsPort interface {
	MetricsRange(ctx context.Context, since, until time.Time) ([]MetricsBucket, error)
}
