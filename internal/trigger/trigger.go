package trigger

import (
	"sync"
	"time"
)

// Trigger is a one-shot, cancellable timer callback.
//
// Invariants:
//   - The callback runs at most once, on the Poster's goroutine.
//   - Cancel before delivery suppresses the callback permanently, even when the
//     underlying timer has already elapsed and its delivery is still queued.
//   - Cancel after delivery is a no-op.
type Trigger struct {
	mu        sync.Mutex
	timer     Timer
	delay     time.Duration
	fireAt    time.Time
	cancelled bool
	fired     bool
}

// Arm schedules fn to be posted to p after delay.
func Arm(p Poster, c Clock, delay time.Duration, fn func()) *Trigger {
	if delay < 0 {
		delay = 0
	}
	t := &Trigger{delay: delay, fireAt: c.Now().Add(delay)}
	timer := c.AfterFunc(delay, func() {
		p.Post(func() { t.deliver(fn) })
	})
	t.mu.Lock()
	t.timer = timer
	t.mu.Unlock()
	return t
}

func (t *Trigger) deliver(fn func()) {
	t.mu.Lock()
	if t.cancelled || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	fn()
}

// Cancel suppresses the callback. It reports whether this call did the
// suppressing; repeated calls and calls after delivery return false.
func (t *Trigger) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

// Pending reports whether the trigger can still fire.
func (t *Trigger) Pending() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.cancelled && !t.fired
}

func (t *Trigger) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

func (t *Trigger) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *Trigger) Delay() time.Duration { return t.delay }

func (t *Trigger) FireAt() time.Time { return t.fireAt }
