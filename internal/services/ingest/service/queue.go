package service

import (
	"context"
	"sync"
	"time"

	"hookline/internal/platform/logger"
	evdom "hookline/internal/services/events/domain"
)

// BatchQueue accumulates events and flushes them by size or age.
//
// All queue and timer mutations happen under one mutex; the flush I/O runs
// outside it so enqueue latency never depends on storage latency. The flush
// swaps the live slice for an empty one, which means concurrent enqueues
// during a slow flush land in the fresh batch and are never lost or resent
type BatchQueue struct {
	writer evdom.WriterPort

	size     int
	interval time.Duration

	mu    sync.Mutex
	items []evdom.Event
	timer *time.Timer
}

// NewBatchQueue constructs a queue flushing at size events or interval age
func NewBatchQueue(writer evdom.WriterPort, size int, interval time.Duration) *BatchQueue {
	if size <= 0 {
		size = 10
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &BatchQueue{writer: writer, size: size, interval: interval}
}

// Enqueue appends e and triggers a synchronous flush at the size threshold.
// The interval timer arms only on the empty to non empty transition
func (q *BatchQueue) Enqueue(ctx context.Context, e evdom.Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	armed := q.timer != nil
	full := len(q.items) >= q.size
	if !full && !armed {
		q.timer = time.AfterFunc(q.interval, func() {
			// timer fires detached from any request context
			q.Flush(context.Background())
		})
	}
	q.mu.Unlock()

	if full {
		q.Flush(ctx)
	}
}

// Len reports the current queue depth
func (q *BatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Flush hands the captured batch to the writer.
// On writer error the genuinely unstored remainder is prepended back onto
// the live queue; rows the writer already captured for retry stay with it
func (q *BatchQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.disarmLocked()
		q.mu.Unlock()
		return
	}
	captured := q.items
	q.items = nil
	q.disarmLocked()
	q.mu.Unlock()

	res, err := q.writer.StoreBatch(ctx, captured)
	if err == nil {
		return
	}

	// partial results tell us which rows are definitely settled
	unstored := make([]evdom.Event, 0, len(captured))
	for i := range captured {
		settled := i < len(res.Results) &&
			(res.Results[i].Outcome == evdom.OutcomeStored || res.Results[i].Outcome == evdom.OutcomeDuplicate)
		if !settled {
			unstored = append(unstored, captured[i])
		}
	}

	logger.C(ctx).Warn().
		Err(err).
		Int("batch", len(captured)).
		Int("requeued", len(unstored)).
		Msg("flush failed, requeueing unstored events")

	q.requeue(unstored)
}

// requeue prepends xs so retried events keep their FIFO position
func (q *BatchQueue) requeue(xs []evdom.Event) {
	if len(xs) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(xs, q.items...)
	if q.timer == nil {
		q.timer = time.AfterFunc(q.interval, func() {
			q.Flush(context.Background())
		})
	}
	q.mu.Unlock()
}

// disarmLocked clears the pending timer; caller holds the mutex
func (q *BatchQueue) disarmLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Drain flushes until the queue is empty or ctx expires
func (q *BatchQueue) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.Flush(ctx)
		if q.Len() == 0 {
			return nil
		}
		// a failed flush requeued; give the store a beat before retrying
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
