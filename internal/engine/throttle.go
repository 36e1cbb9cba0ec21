package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between page requests to a portal.
// The first call passes immediately; every later call waits out whatever is
// left of the interval since the previous one.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle builds a throttle for the given minimum interval. A zero or
// negative interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{}
	}
	// Burst of one: the bucket starts full, so the first Wait is free.
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the interval has elapsed or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
