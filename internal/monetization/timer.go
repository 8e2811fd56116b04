// Package monetization measures time spent in an active call and raises the
// paywall event once the configured threshold is reached.
package monetization

import (
	"errors"
	"sync"
	"time"

	"companion-platform/internal/trigger"
)

// DefaultThreshold is how long a call stays Active before the paywall shows.
const DefaultThreshold = 10 * time.Second

var (
	ErrInvalidThreshold = errors.New("monetization: threshold must be > 0")
	ErrNotStarted       = errors.New("monetization: timer was never started")
)

// Timer arms exactly one trigger per Active period.
//
// Restart is cancel-then-start with the remembered threshold and callback; it
// always produces a fresh trigger rather than reviving the expired one.
type Timer struct {
	poster trigger.Poster
	clock  trigger.Clock

	mu        sync.Mutex
	threshold time.Duration
	onFire    func()
	current   *trigger.Trigger
	arms      int
}

func NewTimer(poster trigger.Poster, clock trigger.Clock) *Timer {
	if clock == nil {
		clock = trigger.System
	}
	return &Timer{poster: poster, clock: clock}
}

func (t *Timer) Start(threshold time.Duration, onFire func()) error {
	if threshold <= 0 {
		return ErrInvalidThreshold
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = threshold
	t.onFire = onFire
	t.armLocked()
	return nil
}

func (t *Timer) Restart() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.onFire == nil {
		return ErrNotStarted
	}
	t.armLocked()
	return nil
}

func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.Cancel()
	t.current = nil
}

// Pending reports whether the current trigger can still fire.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.Pending()
}

// Arms counts how many triggers have been armed over the timer's lifetime.
func (t *Timer) Arms() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arms
}

// Deadline is when the current trigger is due, or zero when none is pending.
func (t *Timer) Deadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.current.Pending() {
		return time.Time{}
	}
	return t.current.FireAt()
}

func (t *Timer) armLocked() {
	t.current.Cancel()
	t.current = trigger.Arm(t.poster, t.clock, t.threshold, t.onFire)
	t.arms++
}
