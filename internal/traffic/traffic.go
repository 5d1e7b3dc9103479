// Package traffic keeps a sliding window of request outcomes for health decisions.
package traffic

import (
	"sync"
	"time"
)

// retention bounds how far back outcomes are kept; windows longer than this see
// only the retained part.
const retention = 5 * time.Minute

var defaultTracker = NewTracker()

// RecordSuccess records a request that produced dashboard data.
func RecordSuccess() { defaultTracker.Record(false) }

// RecordError records a request that failed upstream (provider error, timeout, transport).
func RecordError() { defaultTracker.Record(true) }

// RecordSuccessN records n successes. For synthetic load in testing mode.
func RecordSuccessN(n int) { defaultTracker.RecordN(n, false) }

// RecordErrorN records n errors. For synthetic error injection in testing mode.
func RecordErrorN(n int) { defaultTracker.RecordN(n, true) }

// RequestCount returns the number of outcomes within window.
func RequestCount(window time.Duration) int {
	_, total := defaultTracker.ErrorRate(window)
	return total
}

// ErrorRate returns (errors, total) within window.
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes.
func Reset() { defaultTracker.Reset() }

type outcome struct {
	at     time.Time
	failed bool
}

// Tracker is a time-ordered log of outcomes, pruned past retention on every write.
type Tracker struct {
	mu       sync.Mutex
	outcomes []outcome
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Record appends one outcome.
func (t *Tracker) Record(failed bool) {
	t.RecordN(1, failed)
}

// RecordN appends n identical outcomes stamped with the same time.
func (t *Tracker) RecordN(n int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for i := 0; i < n; i++ {
		t.outcomes = append(t.outcomes, outcome{at: now, failed: failed})
	}
	t.pruneLocked(now)
}

// ErrorRate returns (errors, total) for outcomes not older than window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	for i := len(t.outcomes) - 1; i >= 0 && !t.outcomes[i].at.Before(cutoff); i-- {
		total++
		if t.outcomes[i].failed {
			errors++
		}
	}
	return errors, total
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = nil
}

// pruneLocked drops outcomes older than retention. Caller holds mu.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for i < len(t.outcomes) && t.outcomes[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.outcomes = append(t.outcomes[:0], t.outcomes[i:]...)
	}
}
