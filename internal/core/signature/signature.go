// Package signature validates webhook authenticity per provider HMAC scheme
//
// All schemes compute over the raw, unparsed body bytes. Re-serializing JSON
// before verification would change the digest, so callers must thread the
// original request bytes through untouched
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hookline/internal/core/normalize"
)

// Rejection reasons. Every rejection maps to an authentication failure
// upstream and is never retried
var (
	ErrMissingSignature = errors.New("signature header is required")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidTimestamp = errors.New("invalid signature timestamp")
	ErrTimestampExpired = errors.New("signature timestamp outside allowed skew")
	ErrMissingSecret    = errors.New("no signing secret configured")
)

// Provider signature headers
const (
	HeaderGitHub         = "X-Hub-Signature-256"
	HeaderLinear         = "Linear-Signature"
	HeaderSlack          = "X-Slack-Signature"
	HeaderSlackTimestamp = "X-Slack-Request-Timestamp"
)

// SlackReplayWindow bounds |now - timestamp| for Slack deliveries
const SlackReplayWindow = 300 * time.Second

// Secrets holds the per provider shared signing secrets.
// An empty secret means the source is rejected, never silently accepted
type Secrets struct {
	GitHub string
	Linear string
	Slack  string
}

func (s Secrets) forSource(src normalize.Source) string {
	switch src {
	case normalize.SourceGitHub:
		return s.GitHub
	case normalize.SourceLinear:
		return s.Linear
	case normalize.SourceSlack:
		return s.Slack
	}
	return ""
}

// Result reports a successful verification.
// Challenge carries the Slack url_verification handshake value the caller
// must echo back verbatim; it is empty for normal deliveries
type Result struct {
	Challenge string
}

// Verifier checks deliveries against the configured secrets
type Verifier struct {
	secrets Secrets
}

// New constructs a Verifier
func New(secrets Secrets) *Verifier { return &Verifier{secrets: secrets} }

// Verify authenticates one delivery.
// hdr is the inbound header map and body the exact bytes received.
// now supplies the clock for the Slack replay window
func (v *Verifier) Verify(src normalize.Source, body []byte, hdr http.Header, now time.Time) (Result, error) {
	secret := v.secrets.forSource(src)
	if secret == "" {
		return Result{}, fmt.Errorf("%w for %s", ErrMissingSecret, src)
	}

	switch src {
	case normalize.SourceGitHub:
		return Result{}, verifyGitHub(secret, body, hdr)
	case normalize.SourceLinear:
		return Result{}, verifyLinear(secret, body, hdr)
	case normalize.SourceSlack:
		return verifySlack(secret, body, hdr, now)
	}
	return Result{}, fmt.Errorf("%w: unknown source %q", ErrInvalidSignature, string(src))
}

// verifyGitHub checks the sha256=<hex> scheme
func verifyGitHub(secret string, body []byte, hdr http.Header) error {
	sig := hdr.Get(HeaderGitHub)
	if sig == "" {
		return ErrMissingSignature
	}
	const prefix = "sha256="
	if !strings.HasPrefix(sig, prefix) {
		return ErrInvalidSignature
	}
	want, err := hex.DecodeString(sig[len(prefix):])
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(digest(secret, body), want) {
		return ErrInvalidSignature
	}
	return nil
}

// verifyLinear checks the bare base64 HMAC digest scheme
func verifyLinear(secret string, body []byte, hdr http.Header) error {
	sig := hdr.Get(HeaderLinear)
	if sig == "" {
		return ErrMissingSignature
	}
	want := digest(secret, body)
	// some senders hex encode, and a hex digest is itself decodable base64,
	// so the MAC must be checked against both decodings of the header
	if b, err := base64.StdEncoding.DecodeString(sig); err == nil && hmac.Equal(want, b) {
		return nil
	}
	if h, err := hex.DecodeString(sig); err == nil && hmac.Equal(want, h) {
		return nil
	}
	return ErrInvalidSignature
}

// verifySlack checks v0=<hex> over "v0:{timestamp}:{body}" with the replay
// window enforced before any HMAC work
func verifySlack(secret string, body []byte, hdr http.Header, now time.Time) (Result, error) {
	ts := hdr.Get(HeaderSlackTimestamp)
	if ts == "" {
		return Result{}, ErrInvalidTimestamp
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Result{}, ErrInvalidTimestamp
	}
	skew := now.Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > SlackReplayWindow {
		return Result{}, ErrTimestampExpired
	}

	sig := hdr.Get(HeaderSlack)
	if sig == "" {
		return Result{}, ErrMissingSignature
	}
	const prefix = "v0="
	if !strings.HasPrefix(sig, prefix) {
		return Result{}, ErrInvalidSignature
	}
	want, err := hex.DecodeString(sig[len(prefix):])
	if err != nil {
		return Result{}, ErrInvalidSignature
	}

	base := make([]byte, 0, len(body)+len(ts)+4)
	base = append(base, "v0:"...)
	base = append(base, ts...)
	base = append(base, ':')
	base = append(base, body...)
	if !hmac.Equal(digest(secret, base), want) {
		return Result{}, ErrInvalidSignature
	}

	// surface the handshake challenge for the caller to echo back
	var probe struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Type == "url_verification" {
		return Result{Challenge: probe.Challenge}, nil
	}
	return Result{}, nil
}

func digest(secret string, msg []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return mac.Sum(nil)
}
