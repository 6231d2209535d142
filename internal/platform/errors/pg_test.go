package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "synthetic"}
}

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(pgErr("23505")) {
		t.Fatal("23505 should be duplicate key")
	}
	if IsDuplicateKey(pgErr("23503")) {
		t.Fatal("23503 is not duplicate key")
	}
	// wrapped cause still detected
	wrapped := fmt.Errorf("insert event: %w", pgErr("23505"))
	if !IsDuplicateKey(wrapped) {
		t.Fatal("wrapped 23505 should be duplicate key")
	}
}

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		state string
		want  ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"40001", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
		{"XX000", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.state))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %d ok=%v want %d", c.state, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("not pg")); ok {
		t.Fatal("non-PgError should report !ok")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil passes through")
	}
	err := FromPostgres(pgErr("23505"), "insert event")
	if CodeOf(err) != ErrorCodeDuplicateKey {
		t.Fatalf("code = %d", CodeOf(err))
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatal("nil is not retryable")
	}
	if IsRetryable(context.Canceled) || IsRetryable(context.DeadlineExceeded) {
		t.Fatal("local cancellation is not retryable")
	}
	if !IsRetryable(pgErr("40P01")) {
		t.Fatal("deadlock should be retryable")
	}
	if IsRetryable(pgErr("23505")) {
		t.Fatal("unique violation is not retryable")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatal("commit rollback text should be retryable")
	}
	if !IsRetryable(stderrs.New("dial tcp: connection refused")) {
		t.Fatal("connection refused should be retryable")
	}
}
