package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"companion-platform/internal/trigger"
)

type inlinePoster struct{}

func (inlinePoster) Post(fn func()) bool {
	fn()
	return true
}

// fixedIntn always returns the same offset, clamped to n-1.
type fixedIntn int

func (f fixedIntn) Intn(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func TestScheduler_DelayWithinRange(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	s, err := New(Config{}, inlinePoster{}, clock, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 200; i++ {
		d := s.Schedule(func() {})
		if d < DefaultMinDelay || d > DefaultMaxDelay {
			t.Fatalf("delay %v out of range", d)
		}
	}
	s.Cancel()
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestScheduler_BoundsInclusive(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))

	lo, _ := New(Config{}, inlinePoster{}, clock, fixedIntn(0))
	if d := lo.Schedule(func() {}); d != 10*time.Second {
		t.Fatalf("expected 10s, got %v", d)
	}
	hi, _ := New(Config{}, inlinePoster{}, clock, fixedIntn(1<<30))
	if d := hi.Schedule(func() {}); d != 20*time.Second {
		t.Fatalf("expected 20s, got %v", d)
	}
}

func TestScheduler_FiresExactlyOncePerArmCycle(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	s, _ := New(Config{MinDelay: time.Second, MaxDelay: 3 * time.Second}, inlinePoster{}, clock, rand.New(rand.NewSource(1)))

	fired := 0
	s.Focus(func() { fired++ })
	clock.Advance(3 * time.Second)
	clock.Advance(10 * time.Second)
	if fired != 1 {
		t.Fatalf("expected exactly one fire, got %d", fired)
	}
	if s.Armed() {
		t.Fatalf("expected disarmed after fire")
	}
	s.Cancel()
	s.Cancel()
}

func TestScheduler_BlurSuppressesFire(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	s, _ := New(Config{MinDelay: time.Second, MaxDelay: time.Second}, inlinePoster{}, clock, nil)

	fired := 0
	s.Focus(func() { fired++ })
	if !s.Armed() {
		t.Fatalf("expected armed")
	}
	s.Blur()
	clock.Advance(time.Minute)
	if fired != 0 {
		t.Fatalf("fired after blur")
	}
}

func TestScheduler_RefocusReplacesArmCycle(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	s, _ := New(Config{MinDelay: 5 * time.Second, MaxDelay: 5 * time.Second}, inlinePoster{}, clock, nil)

	first, second := 0, 0
	s.Focus(func() { first++ })
	clock.Advance(4 * time.Second)
	s.Focus(func() { second++ })
	clock.Advance(4 * time.Second)
	if first != 0 || second != 0 {
		t.Fatalf("unexpected fires first=%d second=%d", first, second)
	}
	clock.Advance(time.Second)
	if first != 0 || second != 1 {
		t.Fatalf("expected only the second arm-cycle to fire, first=%d second=%d", first, second)
	}
}

func TestConfig_RejectsInvertedRange(t *testing.T) {
	if _, err := New(Config{MinDelay: 5 * time.Second, MaxDelay: time.Second}, inlinePoster{}, nil, nil); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
