package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", now, before, after)
	}
}

func TestRealClockTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}

func TestMockClockAdvanceFiresTicker(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)
	ticker := clock.NewTicker(time.Minute)

	// Not due yet.
	clock.Advance(30 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case tick := <-ticker.C():
		if !tick.Equal(base.Add(time.Minute)) {
			t.Errorf("tick time = %v, want %v", tick, base.Add(time.Minute))
		}
	default:
		t.Fatal("ticker did not fire at its deadline")
	}
}

func TestMockClockStoppedTickerStaysQuiet(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(time.Minute)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerTrigger(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Hour).(*MockTicker)

	now := clock.Now()
	ticker.Trigger(now)
	select {
	case tick := <-ticker.C():
		if !tick.Equal(now) {
			t.Errorf("tick time = %v, want %v", tick, now)
		}
	default:
		t.Fatal("Trigger delivered nothing")
	}
}

func TestMockClockSetAndSince(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	clock.Set(base.Add(2 * time.Hour))
	if got := clock.Since(base); got != 2*time.Hour {
		t.Errorf("Since = %v, want 2h", got)
	}
}
