package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", now, before, after)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clock.Advance(90 * time.Second)
	if got := clock.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("after Advance, Now() = %v", got)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestFrameCounter(t *testing.T) {
	fc := NewFrameCounter(41)
	if fc.Frame() != 41 {
		t.Fatalf("Frame() = %d, want 41", fc.Frame())
	}

	prev := fc.Frame()
	for i := 0; i < 5; i++ {
		next := fc.Advance()
		if next != prev+1 {
			t.Errorf("Advance() = %d, want %d", next, prev+1)
		}
		if fc.Frame() != next {
			t.Errorf("Frame() = %d after Advance() returned %d", fc.Frame(), next)
		}
		prev = next
	}
}
