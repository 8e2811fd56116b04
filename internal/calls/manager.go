package calls

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"companion-platform/internal/capability"
	"companion-platform/internal/config"
	"companion-platform/internal/payment"
	"companion-platform/internal/paywall"
	"companion-platform/internal/scheduler"
	"companion-platform/internal/trigger"
)

var ErrManagerClosed = errors.New("calls: manager closed")

// Seat is everything the API needs for one user's device.
type Seat struct {
	UserID      string
	Machine     *Machine
	Outbox      *Outbox
	Permissions *capability.RemotePlatform
	Gateway     *capability.Gateway

	lastUsed time.Time // guarded by Manager.mu
}

type ManagerOptions struct {
	Call         config.CallConfig
	Catalog      paywall.Catalog
	Handoff      payment.Handoff
	Entitlements Entitlements
	Observers    []Observer
	Clock        trigger.Clock
	// NewRand returns the random source for a new machine. Nil uses a
	// time-seeded *rand.Rand per machine.
	NewRand func() scheduler.Intn
	Logger  *slog.Logger
}

// Manager keeps one machine per user, created on first use.
type Manager struct {
	opts ManagerOptions

	mu     sync.Mutex
	seats  map[string]*Seat
	closed bool
}

func NewManager(opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = trigger.System
	}
	return &Manager{opts: opts, seats: make(map[string]*Seat)}
}

// Seat returns the user's seat, creating it if needed.
func (m *Manager) Seat(userID string) (*Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	now := m.opts.Clock.Now()
	if s, ok := m.seats[userID]; ok {
		s.lastUsed = now
		return s, nil
	}

	outbox := NewOutbox(m.opts.Call.OutboxSize)
	perms := capability.NewRemotePlatform(capability.StatusUndetermined)
	perms.SetPrompt(outbox.RequestPermission)
	gw := capability.NewGateway(perms)

	var rng scheduler.Intn
	if m.opts.NewRand != nil {
		rng = m.opts.NewRand()
	}
	machine, err := NewMachine(Options{
		UserID: userID,
		Scheduler: scheduler.Config{
			MinDelay: m.opts.Call.RingDelayMin,
			MaxDelay: m.opts.Call.RingDelayMax,
		},
		PaywallAfter: m.opts.Call.PaywallAfter,
		Clock:        m.opts.Clock,
		Rand:         rng,
		Gateway:      gw,
		Catalog:      m.opts.Catalog,
		Handoff:      m.opts.Handoff,
		Entitlements: m.opts.Entitlements,
		Navigator:    outbox,
		View:         outbox,
		Observers:    m.opts.Observers,
		Logger:       m.opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s := &Seat{UserID: userID, Machine: machine, Outbox: outbox, Permissions: perms, Gateway: gw, lastUsed: now}
	m.seats[userID] = s
	return s, nil
}

// Sweep releases seats unused for at least idleFor whose machine is idle.
// A seat touched while it is being checked is kept. It returns the number
// of seats released.
func (m *Manager) Sweep(ctx context.Context, idleFor time.Duration) int {
	cutoff := m.opts.Clock.Now().Add(-idleFor)

	m.mu.Lock()
	var stale []*Seat
	for _, s := range m.seats {
		if !s.lastUsed.After(cutoff) {
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	released := 0
	for _, s := range stale {
		idle, err := s.Machine.Idle(ctx)
		if err != nil || !idle {
			continue
		}
		m.mu.Lock()
		cur, ok := m.seats[s.UserID]
		evict := ok && cur == s && !s.lastUsed.After(cutoff)
		if evict {
			delete(m.seats, s.UserID)
		}
		m.mu.Unlock()
		if evict {
			s.Machine.Close()
			released++
		}
	}
	return released
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, idleFor time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ctx, idleFor); n > 0 {
				m.opts.Logger.Info("released idle call seats", "released", n, "seats", m.Len())
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seats)
}

// Close closes every machine. Seat fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	seats := m.seats
	m.seats = make(map[string]*Seat)
	m.mu.Unlock()

	for _, s := range seats {
		s.Machine.Close()
	}
}
