package dispatch

import (
	"context"
	"sync"
	"time"
)

// TestPublisher creates a publisher configured for testing: inline
// execution, recovery/tracing/metrics disabled.
func TestPublisher(opts ...Option) *Publisher {
	base := []Option{
		WithName("test"),
		WithRecovery(false),
		WithTracing(false),
		WithMetrics(false),
	}
	return New(append(base, opts...)...)
}

// ManualClock is a Clock returning caller-supplied times, for
// deterministic event timestamps in tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock starting at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RecordingListener collects every event its handler receives, for later
// assertions.
type RecordingListener struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

// NewRecordingListener creates a recording listener. If err is non-nil
// the handler returns it after recording, which makes the listener a
// convenient failing subscriber.
func NewRecordingListener(err error) *RecordingListener {
	return &RecordingListener{err: err}
}

// Handler returns the handler function for use with Register/Subscribe.
func (l *RecordingListener) Handler() Handler {
	return func(ctx context.Context, ev *Event) error {
		l.mu.Lock()
		l.events = append(l.events, ev)
		l.mu.Unlock()
		return l.err
	}
}

// Events returns a copy of all recorded events.
func (l *RecordingListener) Events() []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Event, len(l.events))
	copy(out, l.events)
	return out
}

// Count returns the number of events received.
func (l *RecordingListener) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Last returns the most recent event, or nil if none.
func (l *RecordingListener) Last() *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1]
}

// Reset clears recorded events.
func (l *RecordingListener) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

// WaitFor polls until at least n events were received or timeout
// elapses. Returns true if the count was reached. Needed when dispatch
// runs under a delegated executor.
func (l *RecordingListener) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if l.Count() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}
