// Package time contains time helpers for nullable database columns
package time

import "time"

// Ptr returns a pointer to t in UTC, or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// Value returns *p in UTC, or the zero time for nil
func Value(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.UTC()
}
