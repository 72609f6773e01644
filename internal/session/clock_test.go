package session_test

import (
	"testing"

	"github.com/jeeace/backend/internal/session"
)

func TestClock_MonotonicCountdownToExpiry(t *testing.T) {
	expirations := 0
	c := session.NewClock(600, 300, session.ClockCallbacks{
		OnExpire: func() { expirations++ },
	})

	for i := 0; i < 600; i++ {
		c.Tick()
		if c.Remaining() < 0 {
			t.Fatalf("remaining went negative at tick %d", i)
		}
	}

	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}
	if expirations != 1 {
		t.Errorf("expected expiry to fire exactly once, fired %d times", expirations)
	}
	if !c.Expired() {
		t.Error("expected clock to report expired")
	}
}

func TestClock_TicksAfterExpiryAreNoOps(t *testing.T) {
	expirations := 0
	c := session.NewClock(3, 0, session.ClockCallbacks{
		OnExpire: func() { expirations++ },
	})

	for i := 0; i < 10; i++ {
		c.Tick()
	}

	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}
	if expirations != 1 {
		t.Errorf("expected one expiry, got %d", expirations)
	}
}

func TestClock_ThresholdFiresOnce(t *testing.T) {
	warnings := 0
	c := session.NewClock(310, 300, session.ClockCallbacks{
		OnThreshold: func() { warnings++ },
	})

	for i := 0; i < 50; i++ {
		c.Tick()
	}

	if warnings != 1 {
		t.Errorf("expected one threshold warning crossing 300s, got %d", warnings)
	}
}

func TestClock_StopIsIdempotentAndFreezesTime(t *testing.T) {
	ticks := 0
	c := session.NewClock(100, 0, session.ClockCallbacks{
		OnTick: func(int) { ticks++ },
	})

	c.Tick()
	c.Stop()
	c.Stop() // Second stop must not panic or double-close.
	c.Tick()

	if ticks != 1 {
		t.Errorf("expected 1 tick before stop, got %d", ticks)
	}
	if c.Remaining() != 99 {
		t.Errorf("expected remaining frozen at 99, got %d", c.Remaining())
	}
}

func TestClock_TickReportsRemaining(t *testing.T) {
	var seen []int
	c := session.NewClock(3, 0, session.ClockCallbacks{
		OnTick: func(remaining int) { seen = append(seen, remaining) },
	})

	c.Tick()
	c.Tick()
	c.Tick()

	want := []int{2, 1, 0}
	for i, r := range want {
		if seen[i] != r {
			t.Errorf("tick %d: expected remaining %d, got %d", i, r, seen[i])
		}
	}
}
