// Package repo provides the events repository implementation
package repo

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"time"

	"hookline/internal/core/normalize"
	"hookline/internal/modkit/repokit"
	perr "hookline/internal/platform/errors"
	pstrings "hookline/internal/platform/strings"
	"hookline/internal/services/events/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the events repository surface
type Storage interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Insert(ctx context.Context, e domain.Event) (bool, error)
	BumpMetrics(ctx context.Context, at time.Time, src, eventType string, success bool) error
	MetricsRange(ctx context.Context, since, until time.Time) ([]domain.MetricsBucket, error)

	InsertFailed(ctx context.Context, f domain.FailedEvent) error
	SelectRetryEligible(ctx context.Context, now time.Time, limit int) ([]domain.FailedEvent, error)
	UpdateFailed(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errMsg string) error
	DeleteFailed(ctx context.Context, id string) error
	ListAbandoned(ctx context.Context, limit int) ([]domain.FailedEvent, error)

	ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExistsByHash implements Storage
func (s *pg) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.q.QueryRow(ctx,
		`SELECT 1 FROM events WHERE event_hash = $1`, hash,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return false, nil
		}
		return false, perr.FromPostgres(err, "exists by hash")
	}
	return true, nil
}

// Insert implements Storage. Returns false when the uniqueness constraint
// skipped the row (duplicate), true when a row was written
func (s *pg) Insert(ctx context.Context, e domain.Event) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO events
			(id, source, event_type, raw_event_type, action, payload,
			repository, repository_id, organization, organization_id,
			actor, actor_id, actor_type, actor_email,
			channel, channel_id, channel_type,
			target_entity, target_entity_id, target_entity_type,
			delivery_id, webhook_id, event_hash, timestamp, created_at)
		VALUES
			($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,
			$18,$19,$20,$21,$22,$23,$24,$25)
		ON CONFLICT (event_hash) DO NOTHING`,
		e.ID, string(e.Source), e.EventType,
		pstrings.SQLNull(e.RawEventType), pstrings.SQLNull(e.Action), e.Payload,
		pstrings.SQLNull(e.Repository), pstrings.SQLNull(e.RepositoryID),
		pstrings.SQLNull(e.Organization), pstrings.SQLNull(e.OrganizationID),
		pstrings.SQLNull(e.Actor), pstrings.SQLNull(e.ActorID),
		pstrings.SQLNull(e.ActorType), pstrings.SQLNull(e.ActorEmail),
		pstrings.SQLNull(e.Channel), pstrings.SQLNull(e.ChannelID),
		pstrings.SQLNull(e.ChannelType),
		pstrings.SQLNull(e.TargetEntity), pstrings.SQLNull(e.TargetEntityID),
		pstrings.SQLNull(e.TargetEntityType),
		pstrings.SQLNull(e.DeliveryID), pstrings.SQLNull(e.WebhookID),
		e.EventHash, e.Timestamp, e.CreatedAt,
	)
	if err != nil {
		return false, perr.FromPostgres(err, "insert event")
	}
	return tag.RowsAffected() == 1, nil
}

// BumpMetrics implements Storage. Upsert keyed (day, hour, source, event_type)
// with counters incremented atomically per attempt
func (s *pg) BumpMetrics(ctx context.Context, at time.Time, src, eventType string, success bool) error {
	at = at.UTC()
	succ, fail := 1, 0
	if !success {
		succ, fail = 0, 1
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO event_metrics (day, hour, source, event_type, total, success, failed)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
		ON CONFLICT (day, hour, source, event_type) DO UPDATE SET
			total   = event_metrics.total + 1,
			success = event_metrics.success + EXCLUDED.success,
			failed  = event_metrics.failed + EXCLUDED.failed`,
		at.Truncate(24*time.Hour), at.Hour(), src, eventType, succ, fail,
	)
	if err != nil {
		return perr.FromPostgres(err, "bump metrics")
	}
	return nil
}

// MetricsRange implements Storage
func (s *pg) MetricsRange(ctx context.Context, since, until time.Time) ([]domain.MetricsBucket, error) {
	rows, err := s.q.Query(ctx, `
		SELECT day, hour, source, event_type, total, success, failed
		FROM event_metrics
		WHERE day >= $1 AND day < $2
		ORDER BY day, hour, source, event_type`,
		since.UTC(), until.UTC(),
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "query metrics range")
	}
	defer rows.Close()

	var out []domain.MetricsBucket
	for rows.Next() {
		var b domain.MetricsBucket
		var src string
		if err := rows.Scan(&b.Day, &b.Hour, &src, &b.EventType, &b.Total, &b.Success, &b.Failed); err != nil {
			return nil, perr.FromPostgres(err, "scan metrics row")
		}
		b.Source = normalize.Source(src)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "iterate metrics rows")
	}
	return out, nil
}

// InsertFailed implements Storage
func (s *pg) InsertFailed(ctx context.Context, f domain.FailedEvent) error {
	payload, err := json.Marshal(f.Event)
	if err != nil {
		return perr.JSONErrf("encode failed event: %v", err)
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO failed_events
			(id, event, event_hash, source, event_type, error_message,
			retry_count, max_retries, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		f.ID, payload, f.EventHash, string(f.Source), f.EventType,
		f.ErrorMessage, f.RetryCount, f.MaxRetries, f.NextRetryAt, f.CreatedAt,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert failed event")
	}
	return nil
}

// SelectRetryEligible implements Storage. FIFO by created_at, bounded batch
func (s *pg) SelectRetryEligible(ctx context.Context, now time.Time, limit int) ([]domain.FailedEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, event, event_hash, source, event_type, error_message,
			retry_count, max_retries, next_retry_at, created_at, updated_at
		FROM failed_events
		WHERE retry_count < max_retries AND next_retry_at <= $1
		ORDER BY created_at
		LIMIT $2`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "select retry eligible")
	}
	defer rows.Close()
	return scanFailedEvents(rows)
}

// UpdateFailed implements Storage
func (s *pg) UpdateFailed(
	ctx context.Context,
	id string,
	retryCount int,
	nextRetryAt time.Time,
	errMsg string,
) error {
	_, err := s.q.Exec(ctx, `
		UPDATE failed_events
		SET retry_count = $2, next_retry_at = $3, error_message = $4, updated_at = now()
		WHERE id = $1`,
		id, retryCount, nextRetryAt.UTC(), errMsg,
	)
	if err != nil {
		return perr.FromPostgres(err, "update failed event")
	}
	return nil
}

// DeleteFailed implements Storage
func (s *pg) DeleteFailed(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM failed_events WHERE id = $1`, id)
	if err != nil {
		return perr.FromPostgres(err, "delete failed event")
	}
	return nil
}

// ListAbandoned implements Storage
func (s *pg) ListAbandoned(ctx context.Context, limit int) ([]domain.FailedEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, event, event_hash, source, event_type, error_message,
			retry_count, max_retries, next_retry_at, created_at, updated_at
		FROM failed_events
		WHERE retry_count >= max_retries
		ORDER BY created_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list abandoned events")
	}
	defer rows.Close()
	return scanFailedEvents(rows)
}

// ArchiveBefore implements Storage
func (s *pg) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, perr.FromPostgres(err, "archive events")
	}
	return tag.RowsAffected(), nil
}

func scanFailedEvents(rows repokit.Rows) ([]domain.FailedEvent, error) {
	var out []domain.FailedEvent
	for rows.Next() {
		var f domain.FailedEvent
		var payload []byte
		var src string
		if err := rows.Scan(
			&f.ID, &payload, &f.EventHash, &src, &f.EventType, &f.ErrorMessage,
			&f.RetryCount, &f.MaxRetries, &f.NextRetryAt, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, perr.FromPostgres(err, "scan failed event")
		}
		f.Source = normalize.Source(src)
		if err := json.Unmarshal(payload, &f.Event); err != nil {
			return nil, perr.JSONErrf("decode failed event %s: %v", f.ID, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "iterate failed events")
	}
	return out, nil
}
