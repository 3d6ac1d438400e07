// Package ratelimit provides a sliding-window send budget.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of an Allow check or a Reserve call. At is the time of the
// reserved event and is zero when nothing was reserved.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	At         time.Time
}

// Status is a point-in-time view of the window.
type Status struct {
	Count     int
	Limit     int
	Remaining int
}

// Window admits at most limit events within any trailing period. Safe for concurrent use.
type Window struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	now    func() time.Time
	events []time.Time
}

// NewWindow builds a limiter; now defaults to time.Now.
func NewWindow(limit int, period time.Duration, now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{limit: limit, period: period, now: now}
}

// Allow reports whether another event fits. It does not record one, so Allow followed by
// Record is not atomic; concurrent callers should use Reserve.
func (w *Window) Allow() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.decide(w.now())
}

// Reserve records an event when it fits, in the same critical section as the check.
// Remaining counts the budget left after the reservation.
func (w *Window) Reserve() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	d := w.decide(now)
	if !d.Allowed {
		return d
	}
	w.events = append(w.events, now)
	d.Remaining--
	d.At = now
	return d
}

// Cancel releases an event reserved at the given time, e.g. after a failed send.
func (w *Window) Cancel(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := len(w.events) - 1; i >= 0; i-- {
		if w.events[i].Equal(at) {
			w.events = append(w.events[:i], w.events[i+1:]...)
			return
		}
	}
}

func (w *Window) decide(now time.Time) Decision {
	w.evict(now)

	if len(w.events) >= w.limit {
		retry := time.Duration(0)
		if len(w.events) > 0 {
			retry = w.events[0].Add(w.period).Sub(now)
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
	}
	return Decision{Allowed: true, Remaining: w.limit - len(w.events)}
}

// Record notes an event at the current time.
func (w *Window) Record() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events = append(w.events, w.now())
}

// Status evicts expired events and reports the current usage.
func (w *Window) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())
	return Status{Count: len(w.events), Limit: w.limit, Remaining: w.limit - len(w.events)}
}

// Reset forgets every recorded event.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events = nil
}

// evict drops events older than the window start; an event exactly at the start still counts.
func (w *Window) evict(now time.Time) {
	start := now.Add(-w.period)
	i := 0
	for i < len(w.events) && w.events[i].Before(start) {
		i++
	}
	w.events = w.events[i:]
}
