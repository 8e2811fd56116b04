package trigger

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// queuePoster holds posted closures until the test drains them.
type queuePoster struct {
	queue []func()
}

func (q *queuePoster) Post(fn func()) bool {
	q.queue = append(q.queue, fn)
	return true
}

func (q *queuePoster) drain() {
	for len(q.queue) > 0 {
		fn := q.queue[0]
		q.queue = q.queue[1:]
		fn()
	}
}

func TestTrigger_FiresOnce(t *testing.T) {
	clock := NewManualClock(time.Unix(1700000000, 0))
	p := &queuePoster{}
	calls := 0

	tr := Arm(p, clock, 10*time.Second, func() { calls++ })
	if !tr.Pending() {
		t.Fatalf("expected pending trigger")
	}
	if got := tr.FireAt(); !got.Equal(time.Unix(1700000010, 0)) {
		t.Fatalf("unexpected fire time %v", got)
	}

	clock.Advance(9 * time.Second)
	p.drain()
	if calls != 0 {
		t.Fatalf("fired early")
	}

	clock.Advance(time.Second)
	clock.Advance(time.Minute)
	p.drain()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !tr.Fired() || tr.Pending() {
		t.Fatalf("expected fired state")
	}
	if tr.Cancel() {
		t.Fatalf("cancel after fire must be a no-op")
	}
	if tr.Cancelled() {
		t.Fatalf("cancel after fire must not mark cancelled")
	}
}

func TestTrigger_CancelBeforeElapse(t *testing.T) {
	clock := NewManualClock(time.Unix(1700000000, 0))
	p := &queuePoster{}
	calls := 0

	tr := Arm(p, clock, time.Second, func() { calls++ })
	if !tr.Cancel() {
		t.Fatalf("expected first cancel to suppress")
	}
	if tr.Cancel() {
		t.Fatalf("expected second cancel to be a no-op")
	}
	clock.Advance(time.Hour)
	p.drain()
	if calls != 0 {
		t.Fatalf("cancelled trigger fired")
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected underlying timer stopped")
	}
}

func TestTrigger_CancelAfterElapseBeforeDelivery(t *testing.T) {
	clock := NewManualClock(time.Unix(1700000000, 0))
	p := &queuePoster{}
	calls := 0

	tr := Arm(p, clock, time.Second, func() { calls++ })
	clock.Advance(time.Second)
	if len(p.queue) != 1 {
		t.Fatalf("expected delivery queued, got %d", len(p.queue))
	}

	tr.Cancel()
	p.drain()
	if calls != 0 {
		t.Fatalf("stale delivery ran after cancel")
	}
}

func TestLoop_RunsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := NewLoop(8)
	defer l.Stop()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if !l.Post(func() { got = append(got, i) }) {
			t.Fatalf("post rejected")
		}
	}
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("do: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 events, got %d", len(got))
	}
}

func TestLoop_StopRejectsPosts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := NewLoop(1)
	l.Stop()
	l.Stop()

	if l.Post(func() {}) {
		t.Fatalf("expected post rejected after stop")
	}
	if err := l.Do(context.Background(), func() {}); err != ErrLoopStopped {
		t.Fatalf("expected ErrLoopStopped, got %v", err)
	}
	if !l.Stopped() {
		t.Fatalf("expected stopped")
	}
}

func TestTrigger_SystemClockDelivery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := NewLoop(4)
	defer l.Stop()

	fired := make(chan struct{}, 2)
	Arm(l, System, time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("trigger did not fire")
	}
}
