package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between dispatched actions.
// It is shared by every request path in a session, so concurrent
// callers serialize their dispatch instants even when their I/O
// overlaps afterwards. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// New creates a limiter allowing at most one action per interval.
// A non-positive interval disables pacing.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// ForRate creates a limiter allowing at most rps actions per second.
func ForRate(rps int) *Limiter {
	if rps <= 0 {
		return New(0)
	}
	return New(time.Second / time.Duration(rps))
}

// Wait blocks until the caller may dispatch, reserving the dispatch
// slot before sleeping. The reservation happens under the lock, so two
// concurrent callers never observe the same last-dispatch time: each
// gets its own slot one interval after the previous one.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.interval)
	l.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Allow reports whether an action may dispatch immediately, claiming
// the slot when it may. When blocked it returns the remaining wait.
func (l *Limiter) Allow() (bool, time.Duration) {
	if l.interval <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if !l.next.After(now) {
		l.next = now.Add(l.interval)
		return true, 0
	}
	return false, l.next.Sub(now)
}

// Reset clears the limiter state, allowing the next action immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.next = time.Time{}
	l.mu.Unlock()
}

// Interval returns the configured minimum dispatch interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
