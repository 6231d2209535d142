// Package http wires webhook receiver routes to the ingest service
package http

import (
	"io"
	"net/http"
	"time"

	"hookline/internal/core/normalize"
	"hookline/internal/modkit/httpkit"
	perr "hookline/internal/platform/errors"
	evdom "hookline/internal/services/events/domain"
	dom "hookline/internal/services/ingest/domain"
)

// maxBodyBytes bounds a single delivery; GitHub caps payloads at 25 MB
// but anything near that is hostile for a webhook
const maxBodyBytes = 1 << 20

type handlers struct {
	svc     dom.IngestPort
	retry   evdom.RetryPort
	metrics evdom.MetricsPort
}

// Register mounts the receiver and small ops surface on r
func Register(r httpkit.Router, s dom.IngestPort, retry evdom.RetryPort, metrics evdom.MetricsPort) {
	h := &handlers{svc: s, retry: retry, metrics: metrics}

	r.Post("/github", h.receive(normalize.SourceGitHub))
	r.Post("/linear", h.receive(normalize.SourceLinear))
	r.Post("/slack", h.receive(normalize.SourceSlack))

	r.Route("/ops", func(ops httpkit.Router) {
		ops.Post("/abandoned", httpkit.JSON(h.abandoned))
		ops.Get("/metrics", httpkit.Call(h.metricsRange))
	})
}

// receive builds the raw body handler for one provider.
// The body is read verbatim; verification needs the exact bytes
func (h *handlers) receive(src normalize.Source) httpkit.Handler {
	return httpkit.Handle(func(r *http.Request) httpkit.Response {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		if err != nil {
			return httpkit.Error(perr.Newf(perr.ErrorCodeValidation, "read body: %v", err))
		}

		res, err := h.svc.Ingest(r.Context(), src, body, r.Header)
		if err != nil {
			return httpkit.Error(err)
		}
		if res.Challenge != "" {
			return httpkit.Text(http.StatusOK, res.Challenge)
		}
		if res.Queued {
			return httpkit.Accepted(res)
		}
		return httpkit.OK(res)
	})
}

type abandonedReq struct {
	Source string `json:"source,omitempty" validate:"omitempty,webhook_source"`
	Limit  int    `json:"limit,omitempty"  validate:"omitempty,min=1,max=500"`
}

type abandonedResp struct {
	Items []evdom.FailedEvent `json:"items"`
	Count int                 `json:"count"`
}

// abandoned lists failed events that exhausted their retries
func (h *handlers) abandoned(r *http.Request, req abandonedReq) (any, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}
	rows, err := h.retry.ListAbandoned(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if req.Source != "" {
		kept := rows[:0]
		for _, fe := range rows {
			if string(fe.Source) == req.Source {
				kept = append(kept, fe)
			}
		}
		rows = kept
	}
	return abandonedResp{Items: rows, Count: len(rows)}, nil
}

// metricsRange reads hourly counters for a window; defaults to the last 24h
func (h *handlers) metricsRange(r *http.Request) (any, error) {
	q := r.URL.Query()
	until := time.Now().UTC()
	since := until.Add(-24 * time.Hour)

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, perr.Newf(perr.ErrorCodeValidation, "since: %v", err)
		}
		since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, perr.Newf(perr.ErrorCodeValidation, "until: %v", err)
		}
		until = t
	}
	if !since.Before(until) {
		return nil, perr.Newf(perr.ErrorCodeValidation, "since must precede until")
	}
	return h.metrics.MetricsRange(r.Context(), since, until)
}
