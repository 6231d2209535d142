// Package domain defines the types and interfaces for the ingest service
package domain

import (
	"context"
	"net/http"

	"hookline/internal/core/normalize"
)

// Result reports what happened to one inbound delivery
type Result struct {
	// Challenge, when set, must be echoed back verbatim as the whole
	// response body (Slack url_verification handshake). No event is stored
	Challenge string `json:"-"`

	// Queued means the event was accepted onto the batch queue and will be
	// durably persisted, immediately or via the retry path
	Queued bool `json:"queued"`

	// Duplicate means the delivery was recognized as already seen, either
	// by the burst cache or by the store
	Duplicate bool `json:"duplicate"`

	// Stored means the immediate write path persisted the event (batching
	// disabled)
	Stored bool `json:"stored"`

	EventHash string `json:"event_hash,omitempty"`
}

// IngestPort accepts raw deliveries from any transport
type IngestPort interface {
	// Ingest verifies, normalizes, dedups and queues one delivery.
	// body must be the exact bytes received; signature verification
	// depends on them being unmodified
	Ingest(ctx context.Context, src normalize.Source, body []byte, hdr http.Header) (Result, error)

	// Drain synchronously flushes whatever the queue holds, bounded by ctx
	Drain(ctx context.Context) error
}
