// Package normalize converts provider webhook payloads into canonical events
//
// Dispatch is a registry of pure mapping functions keyed by (source, event type).
// Unknown shapes are not errors: they normalize to a minimal record with the
// event type preserved verbatim so novel provider events are never dropped.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedPayload reports a body that cannot satisfy the provider envelope
var ErrMalformedPayload = errors.New("malformed payload")

// ErrUnknownSource reports a source outside the supported set
var ErrUnknownSource = errors.New("unknown source")

// mapper extracts provider specific fields into e
// mappers are pure and must not retain references into p
type mapper func(e *Event, p map[string]any)

var registry = map[Source]map[string]mapper{
	SourceGitHub: githubMappers,
	SourceLinear: linearMappers,
	SourceSlack:  slackMappers,
}

// Normalize builds the canonical Event for one delivery.
// eventType is the transport supplied classifier (GitHub's event header);
// Linear and Slack carry their type inside the payload envelope.
// now supplies the ingestion clock used when the provider reports no time
func Normalize(src Source, eventType string, payload map[string]any, now time.Time) (Event, error) {
	if !src.Valid() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownSource, string(src))
	}
	if payload == nil {
		return Event{}, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	e := Event{
		Source:    src,
		Payload:   payload,
		CreatedAt: now.UTC(),
	}

	switch src {
	case SourceLinear:
		// envelope type is required for Linear
		t := str(payload, "type")
		if t == "" {
			return Event{}, fmt.Errorf("%w: linear payload missing type", ErrMalformedPayload)
		}
		eventType = t
	case SourceSlack:
		if t := str(payload, "type"); t != "" {
			eventType = t
		} else if str(payload, "command") != "" {
			eventType = "slash_command"
		}
		if eventType == "" {
			return Event{}, fmt.Errorf("%w: slack payload missing type", ErrMalformedPayload)
		}
	case SourceGitHub:
		if eventType == "" {
			return Event{}, fmt.Errorf("%w: github delivery missing event header", ErrMalformedPayload)
		}
	}

	e.EventType = eventType
	e.RawEventType = eventType

	if fn, ok := registry[src][eventType]; ok {
		fn(&e, payload)
	} else {
		// minimal record for unrecognized shapes
		e.Action = str(payload, "action")
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	}
	return e, nil
}

// DecodeBody parses a raw webhook body into a payload map.
// JSON bodies are the norm; Slack slash commands arrive form-encoded
func DecodeBody(body []byte, contentType string) (map[string]any, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	mt := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mt = parsed
	}

	if mt == "application/x-www-form-urlencoded" {
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		p := make(map[string]any, len(vals))
		for k := range vals {
			p[k] = vals.Get(k)
		}
		// Slack interactive components post a single json field named payload
		if raw := vals.Get("payload"); raw != "" && len(vals) == 1 {
			var inner map[string]any
			if err := json.Unmarshal([]byte(raw), &inner); err == nil {
				return inner, nil
			}
		}
		return p, nil
	}

	var p map[string]any
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// helpers for digging through decoded JSON

// str walks path through nested objects and returns a string leaf or ""
func str(p map[string]any, path ...string) string {
	v := dig(p, path...)
	s, _ := v.(string)
	return s
}

// idstr walks path and renders a string or numeric leaf as a string id
func idstr(p map[string]any, path ...string) string {
	switch v := dig(p, path...).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func dig(p map[string]any, path ...string) any {
	var cur any = p
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// rfc3339 parses a provider timestamp, returning zero on failure
func rfc3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// epochSeconds parses Slack style "1712345678.000200" timestamps
func epochSeconds(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// only the integral part matters for event time
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
