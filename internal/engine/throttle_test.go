package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleSpacing(t *testing.T) {
	interval := 20 * time.Millisecond
	throttle := NewThrottle(interval)
	ctx := context.Background()

	// First wait is free; the next ones pay the interval.
	stamps := make([]time.Time, 0, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, throttle.Wait(ctx))
		stamps = append(stamps, time.Now())
	}

	// 5% slack absorbs timer granularity.
	floor := interval * 95 / 100
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		require.GreaterOrEqual(t, gap, floor, "gap %d too short", i)
	}
	require.GreaterOrEqual(t, stamps[9].Sub(stamps[0]), 9*floor)
}

func TestThrottleZeroInterval(t *testing.T) {
	throttle := NewThrottle(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, throttle.Wait(ctx))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottleCancellation(t *testing.T) {
	throttle := NewThrottle(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, throttle.Wait(ctx), "the first token is already in the bucket")

	cancel()
	require.Error(t, throttle.Wait(ctx))
}

func TestThrottleNilReceiver(t *testing.T) {
	var throttle *Throttle
	require.NoError(t, throttle.Wait(context.Background()))
}
