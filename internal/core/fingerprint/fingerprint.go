// Package fingerprint derives dedup keys for canonical events
//
// Key is the fast in-memory form used by the burst cache. Hash is the
// authoritative persisted form backed by a uniqueness constraint. Both fold
// in the same fields so the cache can never diverge from true duplicates
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"hookline/internal/core/normalize"
)

// Key returns the composite fingerprint for e.
// Stable across processes: plain field join, no hashing needed for a map key
func Key(e normalize.Event) string {
	parts := []string{
		string(e.Source),
		e.EventType,
		e.Repository,
		e.Actor,
		e.TargetEntityID,
		e.DeliveryID,
		payloadDigest(e.Payload),
	}
	return strings.Join(parts, "|")
}

// Hash returns the persisted event_hash for e: SHA-256 over the same
// composite the in-memory key uses, hex encoded
func Hash(e normalize.Event) string {
	sum := sha256.Sum256([]byte(Key(e)))
	return hex.EncodeToString(sum[:])
}

// payloadDigest hashes the decoded payload in a key order independent way.
// Marshaling a map[string]any sorts keys, so two deliveries of the same
// document digest identically regardless of wire formatting
func payloadDigest(p map[string]any) string {
	if len(p) == 0 {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
