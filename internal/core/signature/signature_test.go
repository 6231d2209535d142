package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"hookline/internal/core/normalize"
)

var testSecrets = Secrets{
	GitHub: "gh-secret",
	Linear: "lin-secret",
	Slack:  "slk-secret",
}

var testNow = time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)

func sign(secret string, msg []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return mac.Sum(nil)
}

func githubHeader(secret string, body []byte) http.Header {
	h := http.Header{}
	h.Set(HeaderGitHub, "sha256="+hex.EncodeToString(sign(secret, body)))
	return h
}

func slackHeaders(secret string, body []byte, at time.Time) http.Header {
	ts := strconv.FormatInt(at.Unix(), 10)
	base := append([]byte("v0:"+ts+":"), body...)
	h := http.Header{}
	h.Set(HeaderSlackTimestamp, ts)
	h.Set(HeaderSlack, "v0="+hex.EncodeToString(sign(secret, base)))
	return h
}

func TestVerify_GitHubValid(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"ref":"refs/heads/main"}`)

	if _, err := v.Verify(normalize.SourceGitHub, body, githubHeader("gh-secret", body), testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerify_GitHubTamperedBody(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"ref":"refs/heads/main"}`)
	hdr := githubHeader("gh-secret", body)

	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01
	if _, err := v.Verify(normalize.SourceGitHub, tampered, hdr, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerify_GitHubWrongSecret(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{}`)
	hdr := githubHeader("other-secret", body)
	if _, err := v.Verify(normalize.SourceGitHub, body, hdr, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerify_GitHubMissingHeader(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	if _, err := v.Verify(normalize.SourceGitHub, []byte(`{}`), http.Header{}, testNow); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected missing signature, got %v", err)
	}
}

func TestVerify_GitHubBadPrefix(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	h := http.Header{}
	h.Set(HeaderGitHub, "sha1=deadbeef")
	if _, err := v.Verify(normalize.SourceGitHub, []byte(`{}`), h, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerify_MissingSecretRejects(t *testing.T) {
	t.Parallel()

	v := New(Secrets{GitHub: "x"}) // linear unset
	body := []byte(`{}`)
	h := http.Header{}
	h.Set(HeaderLinear, base64.StdEncoding.EncodeToString(sign("whatever", body)))
	if _, err := v.Verify(normalize.SourceLinear, body, h, testNow); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
}

func TestVerify_LinearValidBase64(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"Issue","action":"create"}`)
	h := http.Header{}
	h.Set(HeaderLinear, base64.StdEncoding.EncodeToString(sign("lin-secret", body)))

	if _, err := v.Verify(normalize.SourceLinear, body, h, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerify_LinearHexFallback(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"Issue"}`)
	h := http.Header{}
	h.Set(HeaderLinear, hex.EncodeToString(sign("lin-secret", body)))

	if _, err := v.Verify(normalize.SourceLinear, body, h, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerify_LinearHexTampered(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	h := http.Header{}
	h.Set(HeaderLinear, hex.EncodeToString(sign("lin-secret", []byte(`{"type":"Issue"}`))))

	if _, err := v.Verify(normalize.SourceLinear, []byte(`{"type":"Project"}`), h, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerify_LinearGarbageSignature(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	h := http.Header{}
	h.Set(HeaderLinear, "!!not-encodable!!")
	if _, err := v.Verify(normalize.SourceLinear, []byte(`{}`), h, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerify_SlackValid(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"event_callback","event":{"type":"message"}}`)
	hdr := slackHeaders("slk-secret", body, testNow)

	res, err := v.Verify(normalize.SourceSlack, body, hdr, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Challenge != "" {
		t.Fatalf("no challenge expected: %q", res.Challenge)
	}
}

func TestVerify_SlackReplayWindow(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"event_callback"}`)
	stale := testNow.Add(-301 * time.Second)
	hdr := slackHeaders("slk-secret", body, stale)

	// structurally valid signature, expired timestamp: must still reject
	if _, err := v.Verify(normalize.SourceSlack, body, hdr, testNow); !errors.Is(err, ErrTimestampExpired) {
		t.Fatalf("expected timestamp expired, got %v", err)
	}

	// future skew beyond the window rejects too
	ahead := slackHeaders("slk-secret", body, testNow.Add(301*time.Second))
	if _, err := v.Verify(normalize.SourceSlack, body, ahead, testNow); !errors.Is(err, ErrTimestampExpired) {
		t.Fatalf("expected timestamp expired for future skew, got %v", err)
	}

	// right at the boundary is accepted
	edge := slackHeaders("slk-secret", body, testNow.Add(-300*time.Second))
	if _, err := v.Verify(normalize.SourceSlack, body, edge, testNow); err != nil {
		t.Fatalf("boundary timestamp should pass: %v", err)
	}
}

func TestVerify_SlackBadTimestamp(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	h := http.Header{}
	h.Set(HeaderSlackTimestamp, "not-a-number")
	h.Set(HeaderSlack, "v0=00")
	if _, err := v.Verify(normalize.SourceSlack, []byte(`{}`), h, testNow); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp, got %v", err)
	}

	if _, err := v.Verify(normalize.SourceSlack, []byte(`{}`), http.Header{}, testNow); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp for missing header, got %v", err)
	}
}

func TestVerify_SlackChallengeSurfaced(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"url_verification","challenge":"abc123"}`)
	hdr := slackHeaders("slk-secret", body, testNow)

	res, err := v.Verify(normalize.SourceSlack, body, hdr, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Challenge != "abc123" {
		t.Fatalf("challenge = %q", res.Challenge)
	}
}

func TestVerify_SlackTamperedSignature(t *testing.T) {
	t.Parallel()

	v := New(testSecrets)
	body := []byte(`{"type":"event_callback"}`)
	hdr := slackHeaders("slk-secret", body, testNow)

	sig := hdr.Get(HeaderSlack)
	flipped := []byte(sig)
	last := flipped[len(flipped)-1]
	if last == '0' {
		flipped[len(flipped)-1] = '1'
	} else {
		flipped[len(flipped)-1] = '0'
	}
	hdr.Set(HeaderSlack, string(flipped))

	if _, err := v.Verify(normalize.SourceSlack, body, hdr, testNow); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}
