// Package ratelimiter implements a two-field value object tracking
// whether a named periodic task may run again.
package ratelimiter

import "time"

// RateLimiter answers whether enough time has elapsed since a task was
// last performed. It is not safe for concurrent use; callers that share
// a limiter across goroutines must serialize access to it themselves.
type RateLimiter struct {
	interval   time.Duration
	lastDoneAt time.Time
	done       bool
}

// New returns a limiter with no prior execution recorded.
func New(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// CanDo reports whether interval has elapsed since the last Record, or
// whether no task has ever been recorded. It is a pure query and may be
// called before any Record.
func (r *RateLimiter) CanDo(now time.Time) bool {
	if !r.done {
		return true
	}
	return now.Sub(r.lastDoneAt) >= r.interval
}

// Record stores now unconditionally. Callers that want a guard-on-elapsed
// check must call CanDo first.
func (r *RateLimiter) Record(now time.Time) {
	r.lastDoneAt = now
	r.done = true
}

// Reset clears the recorded execution time, so the next CanDo reports
// true regardless of interval.
func (r *RateLimiter) Reset() {
	r.lastDoneAt = time.Time{}
	r.done = false
}
