package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRequestsPerMinute stays below reddit's stated 100/minute quota to
	// leave margin for requests issued outside this process.
	DefaultRequestsPerMinute = 90

	slidingWindow = time.Minute
	// Extra wait past the oldest stamp's expiry, so a clock skew between us
	// and the provider cannot push us over the quota.
	safetyMargin = time.Second
)

// Limiter admits at most one request per Wait call under a sliding
// per-minute budget. The timestamp window is process-local state, not a
// distributed lock; multiple processes sharing one provider quota need
// external coordination.
type Limiter struct {
	mu       sync.Mutex
	capacity int
	stamps   []time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &Limiter{
		capacity: requestsPerMinute,
		now:      time.Now,
		sleep:    sleepWithContext,
	}
}

// Wait blocks until one more request fits under the configured budget, then
// records the request. It is the single intentional blocking point of a
// scrape run and must be called immediately before each outbound request.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.capacity {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		// Window is full. Sleep until the oldest stamp exits the trailing
		// window, plus the safety margin, then re-check.
		wait := l.stamps[0].Add(slidingWindow + safetyMargin).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pending returns how many requests currently occupy the trailing window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops stamps that fell out of the trailing window. Callers must hold
// l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-slidingWindow)
	idx := 0
	for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
		idx++
	}
	l.stamps = l.stamps[idx:]
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
