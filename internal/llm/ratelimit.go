package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter enforces a minimum spacing between outbound AI calls. All
// callers, batch or single, acquire it in turn: the mutex is held across the
// wait so calls to the provider are strictly serialized, and the delay is
// observed before each call rather than after.
type rateLimiter struct {
	lastCall time.Time
	interval time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

// newRateLimiter creates a limiter with the given minimum inter-call interval.
func newRateLimiter(interval time.Duration) *rateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimiter{
		interval: interval,
		now:      time.Now,
	}
}

// wait blocks until the minimum interval since the previous call has elapsed
// or the context is canceled. On success the caller owns the next call slot.
func (rl *rateLimiter) wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.lastCall.IsZero() {
		if remaining := rl.interval - rl.now().Sub(rl.lastCall); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
			case <-timer.C:
			}
		}
	}

	rl.lastCall = rl.now()
	return nil
}
