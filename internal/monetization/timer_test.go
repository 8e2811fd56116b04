package monetization

import (
	"testing"
	"time"

	"companion-platform/internal/trigger"
)

type inlinePoster struct{}

func (inlinePoster) Post(fn func()) bool {
	fn()
	return true
}

func TestTimer_FiresOnceAtThreshold(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	tm := NewTimer(inlinePoster{}, clock)

	fired := 0
	if err := tm.Start(DefaultThreshold, func() { fired++ }); err != nil {
		t.Fatalf("start: %v", err)
	}
	if want := time.Unix(1700000010, 0); !tm.Deadline().Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, tm.Deadline())
	}

	clock.Advance(9999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired before threshold")
	}
	clock.Advance(time.Millisecond)
	clock.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
	if tm.Pending() {
		t.Fatalf("expected no pending trigger")
	}
	if !tm.Deadline().IsZero() {
		t.Fatalf("expected zero deadline once fired")
	}
}

func TestTimer_CancelBeforeThresholdMeansZeroFires(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	tm := NewTimer(inlinePoster{}, clock)

	fired := 0
	_ = tm.Start(10*time.Second, func() { fired++ })
	clock.Advance(5 * time.Second)
	tm.Cancel()
	tm.Cancel()
	clock.Advance(time.Minute)
	if fired != 0 {
		t.Fatalf("expected zero fires, got %d", fired)
	}
}

func TestTimer_RestartArmsFreshTrigger(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	tm := NewTimer(inlinePoster{}, clock)

	fired := 0
	_ = tm.Start(10*time.Second, func() { fired++ })
	clock.Advance(10 * time.Second)
	if fired != 1 {
		t.Fatalf("expected first fire")
	}

	if err := tm.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if tm.Arms() != 2 {
		t.Fatalf("expected 2 arms, got %d", tm.Arms())
	}
	clock.Advance(9 * time.Second)
	if fired != 1 {
		t.Fatalf("restart must measure from restart time")
	}
	clock.Advance(time.Second)
	if fired != 2 {
		t.Fatalf("expected second fire, got %d", fired)
	}
}

func TestTimer_RestartWhilePendingDoesNotDoubleFire(t *testing.T) {
	clock := trigger.NewManualClock(time.Unix(1700000000, 0))
	tm := NewTimer(inlinePoster{}, clock)

	fired := 0
	_ = tm.Start(10*time.Second, func() { fired++ })
	clock.Advance(8 * time.Second)
	_ = tm.Restart()
	clock.Advance(8 * time.Second)
	if fired != 0 {
		t.Fatalf("old trigger fired after restart")
	}
	clock.Advance(2 * time.Second)
	if fired != 1 {
		t.Fatalf("expected one fire, got %d", fired)
	}
}

func TestTimer_RejectsInvalidUse(t *testing.T) {
	tm := NewTimer(inlinePoster{}, nil)
	if err := tm.Start(0, func() {}); err != ErrInvalidThreshold {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if err := tm.Restart(); err != ErrNotStarted {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}
