package logger

import (
	"bytes"
	"context"
	"os"
	"testing"

	"hookline/internal/platform/testkit"
)

// Init latches on the first call, so every test shares one sink.
var buf bytes.Buffer

func TestMain(m *testing.M) {
	Init(Options{Level: "info", Format: "json", Service: "hookline-test", Writer: &buf})
	os.Exit(m.Run())
}

func TestInitAndGet(t *testing.T) {
	buf.Reset()
	Get().Info().Str("k", "v").Msg("hello from test")
	out := buf.String()
	testkit.MustContain(t, out, `"hello from test"`)
	testkit.MustContain(t, out, `"service":"hookline-test"`)
}

func TestLevelFiltering(t *testing.T) {
	buf.Reset()
	Get().Debug().Msg("should be dropped")
	if bytes.Contains(buf.Bytes(), []byte("should be dropped")) {
		t.Fatal("debug line leaked through info level")
	}
}

func TestNamedAddsComponent(t *testing.T) {
	buf.Reset()
	Named("batch-queue").Info().Msg("named line")
	testkit.MustContain(t, buf.String(), `"component":"batch-queue"`)
}

func TestCEnrichesFromContext(t *testing.T) {
	buf.Reset()
	ctx := WithDelivery(context.Background(), "req-1", "github", "dlv-9")
	C(ctx).Info().Msg("ctx line")
	out := buf.String()
	testkit.MustContain(t, out, `"request_id":"req-1"`)
	testkit.MustContain(t, out, `"source":"github"`)
	testkit.MustContain(t, out, `"delivery_id":"dlv-9"`)
}

func TestParseLevelDefaults(t *testing.T) {
	if parseLevel("not-a-level").String() != "debug" {
		t.Fatal("unknown level should default to debug")
	}
	if parseLevel(" WARN ").String() != "warn" {
		t.Fatal("level parse should trim and lowercase")
	}
}
