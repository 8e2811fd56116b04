// Package trigger provides the single-goroutine event loop that owns call
// orchestration state, and the one-shot cancellable timers that feed it.
package trigger

import (
	"context"
	"errors"
	"sync"
)

var ErrLoopStopped = errors.New("trigger: loop stopped")

// Poster delivers closures to the goroutine that owns orchestrator state.
type Poster interface {
	Post(fn func()) bool
}

// Loop runs posted closures one at a time, in the order they were posted.
//
// Rules:
//   - State owned by a loop is only touched from closures running on it.
//   - Blocking work (permission prompts, payment handoff) must run elsewhere and
//     post its result back.
//   - Do must not be called from a closure running on the same loop.
type Loop struct {
	events chan func()
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewLoop starts a loop with the given event buffer.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	l := &Loop{
		events: make(chan func(), buffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.events:
			fn()
		}
	}
}

// Post enqueues fn. It reports false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do posts fn and waits until it has run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Stop terminates the loop and waits for the running closure to return.
// Closures still queued are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}
