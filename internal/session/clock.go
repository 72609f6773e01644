package session

import (
	"sync"
	"time"
)

// ClockCallbacks receive clock events. All callbacks are invoked without the
// clock mutex held, so they may call back into the clock (e.g. Stop).
type ClockCallbacks struct {
	// OnTick fires once per elapsed second with the new remaining value.
	OnTick func(remaining int)
	// OnThreshold fires exactly once, the tick at which remaining equals the
	// configured warning threshold.
	OnThreshold func()
	// OnExpire fires exactly once, when remaining reaches zero.
	OnExpire func()
}

// Clock counts down whole seconds from a starting duration to zero. It emits
// a one-shot threshold warning and a one-shot expiry, and stops itself on
// expiry. Stop is idempotent and prevents any further ticks — the recurring
// schedule is always cancelled on expiry, on submission and on teardown.
//
// Production sessions drive the clock with Start (a 1-second ticker
// goroutine); tests call Tick directly for determinism.
type Clock struct {
	mu             sync.Mutex
	remaining      int
	threshold      int
	thresholdFired bool
	expired        bool
	stopped        bool
	done           chan struct{}
	cb             ClockCallbacks
}

// NewClock creates a stopped clock with the given duration and warning
// threshold, both in whole seconds. A threshold <= 0 disables the warning.
func NewClock(durationSeconds, thresholdSeconds int, cb ClockCallbacks) *Clock {
	return &Clock{
		remaining: durationSeconds,
		threshold: thresholdSeconds,
		done:      make(chan struct{}),
		cb:        cb,
	}
}

// Start begins ticking once per wall-clock second in a background goroutine.
func (c *Clock) Start() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

// Tick advances the countdown by one second and fires any due events.
// Ticks after Stop or expiry are no-ops; remaining never goes negative.
func (c *Clock) Tick() {
	c.mu.Lock()
	if c.stopped || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}

	c.remaining--
	remaining := c.remaining

	fireThreshold := false
	if !c.thresholdFired && c.threshold > 0 && remaining == c.threshold {
		c.thresholdFired = true
		fireThreshold = true
	}

	fireExpire := false
	if remaining == 0 && !c.expired {
		c.expired = true
		c.stopped = true
		close(c.done)
		fireExpire = true
	}
	c.mu.Unlock()

	if c.cb.OnTick != nil {
		c.cb.OnTick(remaining)
	}
	if fireThreshold && c.cb.OnThreshold != nil {
		c.cb.OnThreshold()
	}
	if fireExpire && c.cb.OnExpire != nil {
		c.cb.OnExpire()
	}
}

// Remaining returns the current remaining whole seconds.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown reached zero.
func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Stop cancels the countdown. Safe to call multiple times and from callbacks.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.done)
}
