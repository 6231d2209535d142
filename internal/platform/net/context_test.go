package net

import (
	"context"
	"testing"
)

func TestWithRequestRoundTrip(t *testing.T) {
	ctx := WithRequest(context.Background(), "req-7", "slack")
	if got := RequestID(ctx); got != "req-7" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := Source(ctx); got != "slack" {
		t.Fatalf("Source = %q", got)
	}
}

func TestEmptyValuesAreNotSet(t *testing.T) {
	ctx := WithRequest(context.Background(), "", "")
	if RequestID(ctx) != "" || Source(ctx) != "" {
		t.Fatal("empty ids should not be stored")
	}
}
