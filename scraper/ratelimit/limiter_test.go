package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitAdmitsUpToCapacity(t *testing.T) {
	l := NewLimiter(90)
	clock := time.Date(2021, 10, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatal("should not sleep below capacity")
		return nil
	}

	for i := 0; i < 90; i++ {
		require.NoError(t, l.Wait(context.Background()))
		clock = clock.Add(time.Millisecond)
	}
	require.Equal(t, 90, l.Pending())
}

func TestWaitBlocksOnFullWindow(t *testing.T) {
	l := NewLimiter(90)
	clock := time.Date(2021, 10, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	slept := []time.Duration{}
	l.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		// Advance the clock as a real sleep would, letting the oldest stamp
		// exit the trailing window.
		clock = clock.Add(d)
		return nil
	}

	for i := 0; i < 90; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.Empty(t, slept)

	// The 91st call must block until the oldest stamp leaves the 60s window,
	// plus the 1s safety margin.
	require.NoError(t, l.Wait(context.Background()))
	require.Len(t, slept, 1)
	require.Equal(t, 61*time.Second, slept[0])
	// All 90 original stamps fell out of the window during the sleep.
	require.Equal(t, 1, l.Pending())
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	l := NewLimiter(1)
	clock := time.Date(2021, 10, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnRateLimitedBackoffLadder(t *testing.T) {
	l := NewLimiter(90)

	expected := []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}
	for attempt := 1; attempt <= 3; attempt++ {
		wait, retry := l.OnRateLimited("too many requests", attempt)
		require.True(t, retry)
		require.GreaterOrEqual(t, wait, expected[attempt-1])
		require.Less(t, wait, expected[attempt-1]+5*time.Second)
	}

	// The 4th attempt signals stop.
	_, retry := l.OnRateLimited("too many requests", 4)
	require.False(t, retry)
}

func TestOnRateLimitedPrefersProviderHint(t *testing.T) {
	l := NewLimiter(90)

	wait, retry := l.OnRateLimited("you are doing that too much. try again in 7 minutes.", 1)
	require.True(t, retry)
	require.GreaterOrEqual(t, wait, 7*time.Minute)
	require.Less(t, wait, 7*time.Minute+5*time.Second)

	wait, retry = l.OnRateLimited("Try again in 30 seconds.", 2)
	require.True(t, retry)
	require.GreaterOrEqual(t, wait, 30*time.Second)
	require.Less(t, wait, 35*time.Second)
}

func TestParseRetryHint(t *testing.T) {
	t.Run("no hint", func(t *testing.T) {
		_, ok := parseRetryHint("RATELIMIT")
		require.False(t, ok)
	})
	t.Run("minutes", func(t *testing.T) {
		d, ok := parseRetryHint("try again in 2 minutes")
		require.True(t, ok)
		require.Equal(t, 2*time.Minute, d)
	})
	t.Run("single second", func(t *testing.T) {
		d, ok := parseRetryHint("try again in 1 second")
		require.True(t, ok)
		require.Equal(t, time.Second, d)
	})
}
