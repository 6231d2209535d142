// Package service implements the storage writer for canonical events
package service

import (
	"context"
	"time"

	"hookline/internal/core/fingerprint"
	"hookline/internal/modkit/repokit"
	perr "hookline/internal/platform/errors"
	"hookline/internal/platform/logger"
	ptime "hookline/internal/platform/time"
	dom "hookline/internal/services/events/domain"
	"hookline/internal/services/events/repo"

	"github.com/google/uuid"
)

// Config for the events service
type Config struct {
	// ChunkSize bounds how many events share one transaction during a batch
	ChunkSize int
	// BaseDelay seeds the exponential retry backoff
	BaseDelay time.Duration
	// MaxRetries is the retry ceiling stamped on new failed events
	MaxRetries int
}

func (c *Config) defaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
}

// Svc implements domain.WriterPort, domain.RetryPort and domain.MetricsPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	cfg    Config

	// clock seam for tests
	now func() time.Time
}

// New constructs the events service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Svc {
	cfg.defaults()
	return &Svc{db: db, binder: binder, cfg: cfg, now: time.Now}
}

// StoreOne implements domain.WriterPort.
// Failures (not duplicates) are captured to failed_events before returning
func (s *Svc) StoreOne(ctx context.Context, e dom.Event) (dom.StoreResult, error) {
	res, err := s.attempt(ctx, s.db, &e)
	s.bumpMetrics(ctx, e, res.Outcome != dom.OutcomeFailed)
	if err != nil {
		s.captureFailure(ctx, e, err)
		return res, err
	}
	return res, nil
}

// Reattempt implements domain.WriterPort.
// Same write path as StoreOne but never touches failed_events; the retry
// scheduler owns that row and updates it from the returned error
func (s *Svc) Reattempt(ctx context.Context, e dom.Event) (dom.StoreResult, error) {
	res, err := s.attempt(ctx, s.db, &e)
	s.bumpMetrics(ctx, e, res.Outcome != dom.OutcomeFailed)
	return res, err
}

// StoreBatch implements domain.WriterPort.
// Events run in transactional chunks; a chunk commits only when every row in
// it processed, and rolls back whole on a transaction level error, in which
// case every event of the chunk is reported failed and captured for retry
func (s *Svc) StoreBatch(ctx context.Context, xs []dom.Event) (dom.BatchResult, error) {
	out := dom.BatchResult{Results: make([]dom.StoreResult, len(xs))}
	if len(xs) == 0 {
		return out, nil
	}

	for start := 0; start < len(xs); start += s.cfg.ChunkSize {
		end := min(start+s.cfg.ChunkSize, len(xs))
		chunk := xs[start:end]
		results := out.Results[start:end]

		txErr := s.db.Tx(ctx, func(q repokit.Queryer) error {
			for i := range chunk {
				res, err := s.attempt(ctx, q, &chunk[i])
				if err != nil {
					// poison the chunk; attribution stays on this row
					results[i] = res
					return perr.WithOp(err, "events.StoreBatch")
				}
				results[i] = res
			}
			return nil
		})

		if txErr != nil {
			// whole chunk rolled back: report every row failed
			msg := perr.Root(txErr).Error()
			for i := range chunk {
				results[i] = dom.StoreResult{
					EventHash: chunk[i].EventHash,
					Outcome:   dom.OutcomeFailed,
					Err:       msg,
				}
			}
		}

		// metrics count every attempt, including rows whose tx rolled back;
		// they run outside the chunk transaction so a rollback cannot eat
		// them, and before failure capture so a capture error cannot either
		for i := range chunk {
			s.bumpMetrics(ctx, chunk[i], results[i].Outcome != dom.OutcomeFailed)
		}

		if txErr != nil {
			msg := perr.Root(txErr).Error()
			for i := range chunk {
				if err := s.persistFailure(ctx, chunk[i], msg); err != nil {
					// capture failed too; the caller still owns the batch
					out.Tally()
					return out, err
				}
			}
		}
	}

	out.Tally()
	return out, nil
}

// ArchiveBefore implements domain.WriterPort
func (s *Svc) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.binder.Bind(s.db).ArchiveBefore(ctx, cutoff)
}

// SelectRetryEligible implements domain.RetryPort
func (s *Svc) SelectRetryEligible(ctx context.Context, now time.Time, limit int) ([]dom.FailedEvent, error) {
	return s.binder.Bind(s.db).SelectRetryEligible(ctx, now, limit)
}

// UpdateFailed implements domain.RetryPort
func (s *Svc) UpdateFailed(
	ctx context.Context,
	id string,
	retryCount int,
	nextRetryAt time.Time,
	errMsg string,
) error {
	return s.binder.Bind(s.db).UpdateFailed(ctx, id, retryCount, nextRetryAt, errMsg)
}

// DeleteFailed implements domain.RetryPort
func (s *Svc) DeleteFailed(ctx context.Context, id string) error {
	return s.binder.Bind(s.db).DeleteFailed(ctx, id)
}

// ListAbandoned implements domain.RetryPort
func (s *Svc) ListAbandoned(ctx context.Context, limit int) ([]dom.FailedEvent, error) {
	return s.binder.Bind(s.db).ListAbandoned(ctx, limit)
}

// MetricsRange implements domain.MetricsPort
func (s *Svc) MetricsRange(ctx context.Context, since, until time.Time) ([]dom.MetricsBucket, error) {
	return s.binder.Bind(s.db).MetricsRange(ctx, since, until)
}

// attempt runs the check then insert dance for one event against q.
// Fills in id and event_hash when the caller left them empty
func (s *Svc) attempt(ctx context.Context, q repokit.Queryer, e *dom.Event) (dom.StoreResult, error) {
	if e.EventHash == "" {
		e.EventHash = fingerprint.Hash(*e)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = ptime.OrNow(e.CreatedAt, s.now().UTC())

	st := s.binder.Bind(q)

	exists, err := st.ExistsByHash(ctx, e.EventHash)
	if err != nil {
		return failResult(*e, err), err
	}
	if exists {
		return dom.StoreResult{EventHash: e.EventHash, Outcome: dom.OutcomeDuplicate}, nil
	}

	inserted, err := st.Insert(ctx, *e)
	if err != nil {
		// a concurrent writer can land the row between check and insert
		if perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
			return dom.StoreResult{EventHash: e.EventHash, Outcome: dom.OutcomeDuplicate}, nil
		}
		return failResult(*e, err), err
	}
	if !inserted {
		return dom.StoreResult{EventHash: e.EventHash, Outcome: dom.OutcomeDuplicate}, nil
	}
	return dom.StoreResult{EventHash: e.EventHash, Outcome: dom.OutcomeStored}, nil
}

// captureFailure persists a FailedEvent for e; logs if even that write fails
func (s *Svc) captureFailure(ctx context.Context, e dom.Event, cause error) {
	if err := s.persistFailure(ctx, e, perr.Root(cause).Error()); err != nil {
		logger.C(ctx).Error().
			Err(err).
			Str("event_hash", e.EventHash).
			Msg("failed event capture lost")
	}
}

func (s *Svc) persistFailure(ctx context.Context, e dom.Event, msg string) error {
	now := s.now().UTC()
	return s.binder.Bind(s.db).InsertFailed(ctx, dom.FailedEvent{
		ID:           uuid.NewString(),
		Event:        e,
		EventHash:    e.EventHash,
		Source:       e.Source,
		EventType:    e.EventType,
		ErrorMessage: msg,
		RetryCount:   0,
		MaxRetries:   s.cfg.MaxRetries,
		NextRetryAt:  now.Add(dom.Backoff(s.cfg.BaseDelay, 0)),
		CreatedAt:    now,
	})
}

// bumpMetrics records one attempt; metric loss is logged, never fatal
func (s *Svc) bumpMetrics(ctx context.Context, e dom.Event, success bool) {
	err := s.binder.Bind(s.db).BumpMetrics(ctx, s.now(), string(e.Source), e.EventType, success)
	if err != nil {
		logger.C(ctx).Warn().
			Err(err).
			Str("source", string(e.Source)).
			Str("event_type", e.EventType).
			Msg("metrics bump lost")
	}
}

// NextRetryAt computes the follow up schedule for a failed attempt
func (s *Svc) NextRetryAt(now time.Time, retryCount int) time.Time {
	return now.UTC().Add(dom.Backoff(s.cfg.BaseDelay, retryCount))
}

func failResult(e dom.Event, err error) dom.StoreResult {
	return dom.StoreResult{
		EventHash: e.EventHash,
		Outcome:   dom.OutcomeFailed,
		Err:       perr.Root(err).Error(),
	}
}
