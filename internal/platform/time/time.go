// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// OrNow returns t unless it is zero, in which case now is returned
func OrNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
