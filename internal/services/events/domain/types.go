// Package domain defines the types and interfaces for the events service
package domain

import (
	"time"

	"hookline/internal/core/normalize"
)

// Event is the canonical webhook record this service persists
type Event = normalize.Event

// StoreOutcome classifies the result of one store attempt.
// Duplicate is a normal outcome, not an error; callers must not treat
// "no error" as "no duplicates"
type StoreOutcome string

// Store outcomes
const (
	OutcomeStored    StoreOutcome = "stored"
	OutcomeDuplicate StoreOutcome = "duplicate"
	OutcomeFailed    StoreOutcome = "failed"
)

// StoreResult reports the outcome for a single event
type StoreResult struct {
	EventHash string
	Outcome   StoreOutcome
	Err       string // populated when Outcome is OutcomeFailed
}

// BatchResult reports per event outcomes in input order plus tallies
type BatchResult struct {
	Results    []StoreResult
	Stored     int
	Duplicates int
	Failed     int
}

// Tally recomputes the counters from Results
func (b *BatchResult) Tally() {
	b.Stored, b.Duplicates, b.Failed = 0, 0, 0
	for _, r := range b.Results {
		switch r.Outcome {
		case OutcomeStored:
			b.Stored++
		case OutcomeDuplicate:
			b.Duplicates++
		case OutcomeFailed:
			b.Failed++
		}
	}
}

// FailedEvent is a persisted record of a write attempt that errored.
// Created by the writer, mutated by the retry scheduler, deleted on a
// successful retry. Rows at the retry ceiling stay put for operator review
type FailedEvent struct {
	ID           string
	Event        Event
	EventHash    string
	Source       normalize.Source
	EventType    string
	ErrorMessage string
	RetryCount   int
	MaxRetries   int
	NextRetryAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Abandoned reports whether f has exhausted its retry budget
func (f FailedEvent) Abandoned() bool { return f.RetryCount >= f.MaxRetries }

// MetricsBucket is the per (day, hour, source, event type) counter row
type MetricsBucket struct {
	Day       time.Time
	Hour      int
	Source    normalize.Source
	EventType string
	Total     int64
	Success   int64
	Failed    int64
}

// Backoff returns the delay before the next attempt: base * 2^retryCount
func Backoff(base time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	// cap the shift so a corrupt counter cannot overflow the duration
	if retryCount > 30 {
		retryCount = 30
	}
	return base * time.Duration(int64(1)<<uint(retryCount))
}
