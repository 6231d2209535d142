package repo

import (
	"context"
	stdsql "database/sql"
	"strings"
	"testing"
	"time"

	"hookline/internal/modkit/repokit"
	perr "hookline/internal/platform/errors"
	"hookline/internal/services/events/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// failQ returns the injected error from every query surface
type failQ struct{ err error }

type failRow struct{ err error }

func (r failRow) Scan(...any) error { return r.err }

func (f failQ) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, f.err
}

func (f failQ) Query(context.Context, string, ...any) (repokit.Rows, error) {
	return nil, f.err
}

func (f failQ) QueryRow(context.Context, string, ...any) repokit.Row {
	return failRow{err: f.err}
}

func bindFail(err error) Storage {
	return NewPG().Bind(failQ{err: err})
}

func TestExistsByHashNoRowsIsNotAnError(t *testing.T) {
	t.Parallel()

	st := bindFail(stdsql.ErrNoRows)
	found, err := st.ExistsByHash(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("no rows must report not found")
	}
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	st := bindFail(&pgconn.PgError{Code: "23505", ConstraintName: "events_event_hash_key"})
	_, err := st.Insert(context.Background(), domain.Event{EventHash: "deadbeef"})
	if !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("code = %v, want duplicate key", perr.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "insert event") {
		t.Fatalf("error lost its operation context: %v", err)
	}
}

func TestRepoErrorsCarryOperationContext(t *testing.T) {
	t.Parallel()

	st := bindFail(&pgconn.PgError{Code: "57P03"}) // cannot connect now
	ctx := context.Background()
	now := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		msg string
		err error
	}{
		{"bump metrics", st.BumpMetrics(ctx, now, "github", "push", true)},
		{"insert failed event", st.InsertFailed(ctx, domain.FailedEvent{ID: "r1"})},
		{"update failed event", st.UpdateFailed(ctx, "r1", 1, now, "boom")},
		{"delete failed event", st.DeleteFailed(ctx, "r1")},
	}
	for _, c := range cases {
		if c.err == nil {
			t.Fatalf("%s: expected error", c.msg)
		}
		if !perr.IsCode(c.err, perr.ErrorCodeUnavailable) {
			t.Fatalf("%s: code = %v, want unavailable", c.msg, perr.CodeOf(c.err))
		}
		if !strings.Contains(c.err.Error(), c.msg) {
			t.Fatalf("%s: error lost its operation context: %v", c.msg, c.err)
		}
	}

	if _, err := st.SelectRetryEligible(ctx, now, 10); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("select retry eligible: %v", err)
	}
	if _, err := st.ArchiveBefore(ctx, now); !strings.Contains(err.Error(), "archive events") {
		t.Fatalf("archive before: %v", err)
	}
}
