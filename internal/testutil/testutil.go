// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/timer"
)

// FakeClock provides deterministic time for testing.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewFakeClock creates a FakeClock set to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// FakeScheduler implements timer.Scheduler against a virtual clock.
// Callbacks fire synchronously inside Advance, in timestamp order.
type FakeScheduler struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	at        time.Time
	fn        func()
	cancelled bool
}

// NewFakeScheduler creates a FakeScheduler starting at t.
func NewFakeScheduler(t time.Time) *FakeScheduler {
	return &FakeScheduler{now: t}
}

// After registers fn to fire once the virtual clock reaches now+d.
func (s *FakeScheduler) After(d time.Duration, fn func()) timer.Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	ft := &fakeTimer{at: s.now.Add(d), fn: fn}
	s.pending = append(s.pending, ft)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ft.cancelled = true
	}
}

// Advance moves the virtual clock forward by d and fires every due,
// non-cancelled callback in timestamp order.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	deadline := s.now

	var due []*fakeTimer
	var rest []*fakeTimer
	for _, ft := range s.pending {
		if ft.cancelled {
			continue
		}
		if !ft.at.After(deadline) {
			due = append(due, ft)
		} else {
			rest = append(rest, ft)
		}
	}
	s.pending = rest
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	s.mu.Unlock()

	// Fire outside the lock: callbacks may schedule or cancel timers.
	for _, ft := range due {
		if !ft.cancelled {
			ft.fn()
		}
	}
}

// PendingCount returns the number of armed, non-cancelled timers.
func (s *FakeScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ft := range s.pending {
		if !ft.cancelled {
			n++
		}
	}
	return n
}

// TestContext returns a context with a 5-second timeout.
// The context is cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
