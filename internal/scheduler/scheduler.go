// Package scheduler raises simulated incoming-call events while a hosting
// screen is focused.
package scheduler

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"companion-platform/internal/trigger"
)

const (
	DefaultMinDelay = 10 * time.Second
	DefaultMaxDelay = 20 * time.Second
)

var ErrInvalidRange = errors.New("scheduler: invalid delay range")

// Intn is the random source used to draw delays. *rand.Rand satisfies it.
type Intn interface {
	Intn(n int) int
}

// Config controls the delay range. Bounds are inclusive and drawn with
// millisecond granularity.
type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.MinDelay <= 0 && out.MaxDelay <= 0 {
		out.MinDelay = DefaultMinDelay
		out.MaxDelay = DefaultMaxDelay
	}
	return out
}

func (c Config) Validate() error {
	c = c.withDefaults()
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidRange
	}
	return nil
}

// Scheduler owns at most one armed trigger at a time.
//
// Contract:
// - Schedule arms a fresh trigger, cancelling any previous arm-cycle.
// - Cancel is idempotent and safe whether or not the trigger fired.
// - A cancelled arm-cycle never invokes its callback.
type Scheduler struct {
	cfg    Config
	poster trigger.Poster
	clock  trigger.Clock

	mu      sync.Mutex
	rng     Intn
	current *trigger.Trigger
}

func New(cfg Config, poster trigger.Poster, clock trigger.Clock, rng Intn) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = trigger.System
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{cfg: cfg, poster: poster, clock: clock, rng: rng}, nil
}

// Schedule arms a new trigger and returns the drawn delay.
func (s *Scheduler) Schedule(onFire func()) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Cancel()
	d := s.nextDelay()
	s.current = trigger.Arm(s.poster, s.clock, d, onFire)
	return d
}

// Cancel stops the current arm-cycle, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Cancel()
	s.current = nil
}

// Focus re-arms the scheduler for a screen that just gained focus.
func (s *Scheduler) Focus(onFire func()) time.Duration {
	return s.Schedule(onFire)
}

// Blur cancels the scheduler for a screen that lost focus.
func (s *Scheduler) Blur() {
	s.Cancel()
}

// Armed reports whether an arm-cycle is still pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Pending()
}

func (s *Scheduler) nextDelay() time.Duration {
	minMs := s.cfg.MinDelay.Milliseconds()
	maxMs := s.cfg.MaxDelay.Milliseconds()
	span := maxMs - minMs + 1
	if span <= 1 {
		return s.cfg.MinDelay
	}
	return time.Duration(minMs+int64(s.rng.Intn(int(span)))) * time.Millisecond
}
