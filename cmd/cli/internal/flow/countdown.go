package flow

import (
	"context"
	"sync"
	"time"
)

// Countdown tracks the passcode validity window against an absolute deadline.
// Remaining is always recomputed from the wall clock, so a stalled or delayed
// tick can only make the display jump down, never drift up past the real
// deadline.
type Countdown struct {
	deadline time.Time

	// now and interval are swapped out by tests.
	now      func() time.Time
	interval time.Duration

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewCountdown starts a countdown for a challenge issued at issuedAt with the
// given validity.
func NewCountdown(issuedAt time.Time, ttl time.Duration) *Countdown {
	return &Countdown{
		deadline: issuedAt.Add(ttl),
		now:      time.Now,
		interval: time.Second,
		stopped:  make(chan struct{}),
	}
}

// Remaining returns the whole seconds left before the deadline, never
// negative.
func (c *Countdown) Remaining() int {
	left := c.deadline.Sub(c.now())
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// Expired reports whether the deadline has passed.
func (c *Countdown) Expired() bool {
	return !c.now().Before(c.deadline)
}

// Run invokes tick once immediately and then every second until the deadline
// passes, the countdown is stopped, or ctx is done. The final invocation
// always reports zero when the deadline was reached.
func (c *Countdown) Run(ctx context.Context, tick func(remaining int)) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := c.Remaining()
	tick(remaining)
	if remaining == 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopped:
			return
		case <-ticker.C:
			remaining = c.Remaining()
			tick(remaining)
			if remaining == 0 {
				return
			}
		}
	}
}

// Stop ends the countdown. Safe to call more than once and after Run has
// returned.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}
