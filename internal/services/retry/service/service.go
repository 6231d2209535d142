// Package service implements the retry scheduler
package service

import (
	"context"
	"time"

	"hookline/internal/platform/logger"
	evdom "hookline/internal/services/events/domain"
	dom "hookline/internal/services/retry/domain"
)

// Config controls the scheduler loop
type Config struct {
	Tick      time.Duration
	Take      int
	BaseDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.Tick <= 0 {
		c.Tick = 30 * time.Second
	}
	if c.Take <= 0 {
		c.Take = 100
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 30 * time.Second
	}
}

// Svc implements domain.SchedulerPort
type Svc struct {
	writer evdom.WriterPort
	retry  evdom.RetryPort
	cfg    Config

	now func() time.Time
}

// New constructs the scheduler around the events ports
func New(writer evdom.WriterPort, retry evdom.RetryPort, cfg Config) *Svc {
	cfg.applyDefaults()
	return &Svc{writer: writer, retry: retry, cfg: cfg, now: time.Now}
}

// Sweep implements domain.SchedulerPort.
// Each selected row is reattempted through the normal write path; a stored
// or duplicate outcome retires the row, anything else bumps its counter and
// reschedules on the backoff curve. Rows that reach their ceiling are left
// in place and never selected again
func (s *Svc) Sweep(ctx context.Context, now time.Time) (dom.SweepStats, error) {
	log := logger.Named("retry")

	due, err := s.retry.SelectRetryEligible(ctx, now, s.cfg.Take)
	if err != nil {
		return dom.SweepStats{}, err
	}
	stats := dom.SweepStats{Selected: len(due)}

	for _, fe := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		res, aerr := s.writer.Reattempt(ctx, fe.Event)
		if aerr == nil && res.Outcome != evdom.OutcomeFailed {
			if derr := s.retry.DeleteFailed(ctx, fe.ID); derr != nil {
				log.Error().Err(derr).Str("failed_id", fe.ID).Msg("retire failed event")
				continue
			}
			stats.Recovered++
			log.Info().
				Str("failed_id", fe.ID).
				Str("event_hash", fe.EventHash).
				Str("outcome", string(res.Outcome)).
				Int("retry_count", fe.RetryCount).
				Msg("failed event recovered")
			continue
		}

		count := fe.RetryCount + 1
		next := now.Add(evdom.Backoff(s.cfg.BaseDelay, count))
		msg := fe.ErrorMessage
		if aerr != nil {
			msg = aerr.Error()
		}
		if uerr := s.retry.UpdateFailed(ctx, fe.ID, count, next, msg); uerr != nil {
			log.Error().Err(uerr).Str("failed_id", fe.ID).Msg("reschedule failed event")
			continue
		}

		if count >= fe.MaxRetries {
			stats.Abandoned++
			log.Warn().
				Str("failed_id", fe.ID).
				Str("event_hash", fe.EventHash).
				Int("retry_count", count).
				Msg("failed event abandoned")
			continue
		}
		stats.Deferred++
		log.Debug().
			Str("failed_id", fe.ID).
			Int("retry_count", count).
			Time("next_retry_at", next).
			Msg("failed event rescheduled")
	}
	return stats, nil
}

// Run implements domain.SchedulerPort
func (s *Svc) Run(ctx context.Context) error {
	log := logger.Named("retry")
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats, err := s.Sweep(ctx, s.now())
			if err != nil {
				log.Error().Err(err).Msg("sweep failed")
				continue
			}
			if stats.Selected > 0 {
				log.Info().
					Int("selected", stats.Selected).
					Int("recovered", stats.Recovered).
					Int("deferred", stats.Deferred).
					Int("abandoned", stats.Abandoned).
					Msg("retry sweep")
			}
		}
	}
}
