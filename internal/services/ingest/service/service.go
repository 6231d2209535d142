// Package service implements the transport agnostic ingestion core:
// verify, normalize, dedup, enqueue
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hookline/internal/core/fingerprint"
	"hookline/internal/core/normalize"
	"hookline/internal/core/signature"
	perr "hookline/internal/platform/errors"
	"hookline/internal/platform/logger"
	evdom "hookline/internal/services/events/domain"
	dom "hookline/internal/services/ingest/domain"
)

// Provider delivery headers consulted for idempotency hints
const (
	headerGitHubEvent    = "X-GitHub-Event"
	headerGitHubDelivery = "X-GitHub-Delivery"
	headerGitHubHookID   = "X-GitHub-Hook-ID"
	headerLinearDelivery = "Linear-Delivery"
)

// Config for the ingest service
type Config struct {
	// BatchingEnabled switches between the queue and the immediate path
	BatchingEnabled bool
	BatchSize       int
	BatchInterval   time.Duration

	DedupTTL   time.Duration
	SweepEvery time.Duration
}

// Svc implements domain.IngestPort
type Svc struct {
	verifier *signature.Verifier
	writer   evdom.WriterPort
	queue    *BatchQueue
	cache    *dedupCache
	cfg      Config

	now func() time.Time
}

// New constructs the ingest service around an events writer
func New(verifier *signature.Verifier, writer evdom.WriterPort, cfg Config) *Svc {
	return &Svc{
		verifier: verifier,
		writer:   writer,
		queue:    NewBatchQueue(writer, cfg.BatchSize, cfg.BatchInterval),
		cache:    newDedupCache(cfg.DedupTTL, cfg.SweepEvery),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Ingest implements domain.IngestPort
func (s *Svc) Ingest(
	ctx context.Context,
	src normalize.Source,
	body []byte,
	hdr http.Header,
) (dom.Result, error) {
	if !src.Valid() {
		return dom.Result{}, perr.Newf(perr.ErrorCodeValidation, "unknown source %q", string(src))
	}

	now := s.now()

	ver, err := s.verifier.Verify(src, body, hdr, now)
	if err != nil {
		// rejections are final; providers re-sign on their own retries
		return dom.Result{}, perr.Unauthorizedf("%s: %v", src, err)
	}
	if ver.Challenge != "" {
		return dom.Result{Challenge: ver.Challenge}, nil
	}

	payload, err := normalize.DecodeBody(body, hdr.Get("Content-Type"))
	if err != nil {
		return dom.Result{}, mapNormalizeErr(src, err)
	}

	e, err := normalize.Normalize(src, hdr.Get(headerGitHubEvent), payload, now)
	if err != nil {
		return dom.Result{}, mapNormalizeErr(src, err)
	}
	stampDeliveryHints(&e, hdr)
	e.EventHash = fingerprint.Hash(e)

	log := logger.C(ctx)

	// burst fast path; the storage constraint remains authoritative
	if s.cache.Register(fingerprint.Key(e)) {
		log.Debug().
			Str("source", string(src)).
			Str("event_type", e.EventType).
			Str("event_hash", e.EventHash).
			Msg("duplicate collapsed in window")
		return dom.Result{Duplicate: true, EventHash: e.EventHash}, nil
	}

	if !s.cfg.BatchingEnabled {
		res, err := s.writer.StoreOne(ctx, e)
		if err != nil {
			// immediate path surfaces the failure; the event is already
			// captured for retry so the transport may 500 without loss
			return dom.Result{EventHash: e.EventHash}, err
		}
		return dom.Result{
			Stored:    res.Outcome == evdom.OutcomeStored,
			Duplicate: res.Outcome == evdom.OutcomeDuplicate,
			EventHash: e.EventHash,
		}, nil
	}

	s.queue.Enqueue(ctx, e)
	return dom.Result{Queued: true, EventHash: e.EventHash}, nil
}

// Drain implements domain.IngestPort
func (s *Svc) Drain(ctx context.Context) error {
	return s.queue.Drain(ctx)
}

// Run keeps the dedup sweep going until ctx is done
func (s *Svc) Run(ctx context.Context) error {
	s.cache.Run(ctx)
	return ctx.Err()
}

// QueueLen exposes queue depth for logging and tests
func (s *Svc) QueueLen() int { return s.queue.Len() }

func mapNormalizeErr(src normalize.Source, err error) error {
	if errors.Is(err, normalize.ErrMalformedPayload) || errors.Is(err, normalize.ErrUnknownSource) {
		return perr.Newf(perr.ErrorCodeValidation, "%s: %v", src, err)
	}
	return err
}

// stampDeliveryHints fills idempotency hints only the transport headers carry
func stampDeliveryHints(e *normalize.Event, hdr http.Header) {
	switch e.Source {
	case normalize.SourceGitHub:
		if e.DeliveryID == "" {
			e.DeliveryID = hdr.Get(headerGitHubDelivery)
		}
		if e.WebhookID == "" {
			e.WebhookID = hdr.Get(headerGitHubHookID)
		}
	case normalize.SourceLinear:
		if e.DeliveryID == "" {
			e.DeliveryID = hdr.Get(headerLinearDelivery)
		}
	}
}
