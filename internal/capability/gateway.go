// Package capability gates camera/microphone access behind the platform's
// asynchronous permission prompt.
package capability

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the platform-reported permission status.
type Status string

const (
	StatusUndetermined Status = "undetermined"
	StatusGranted      Status = "granted"
	StatusDenied       Status = "denied"
	// StatusUnavailable means no capture device exists.
	StatusUnavailable Status = "unavailable"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUndetermined, StatusGranted, StatusDenied, StatusUnavailable:
		return true
	default:
		return false
	}
}

var (
	ErrPermissionDenied = errors.New("capability: permission denied")
	ErrNoCaptureDevice  = errors.New("capability: no capture device")
	ErrCaptureBusy      = errors.New("capability: capture device in use")
)

// Platform is the OS permission surface.
type Platform interface {
	Check(ctx context.Context) (Status, error)
	Request(ctx context.Context) (Status, error)
}

// PermissionState is the cached result of the last check or request.
type PermissionState struct {
	Status    Status    `json:"status"`
	Granted   bool      `json:"granted"`
	CheckedAt time.Time `json:"checked_at"`
}

// Gateway caches permission state and serializes requests.
//
// Rules:
// - HasPermission never blocks and never prompts.
// - Concurrent RequestPermission calls share one platform request.
// - At most one owner holds the capture device at a time.
type Gateway struct {
	platform Platform
	clock    func() time.Time
	group    singleflight.Group

	mu    sync.RWMutex
	state PermissionState
	owner string
}

func NewGateway(p Platform) *Gateway {
	return &Gateway{
		platform: p,
		clock:    time.Now,
		state:    PermissionState{Status: StatusUndetermined},
	}
}

func (g *Gateway) HasPermission() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Granted
}

func (g *Gateway) State() PermissionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// DeviceAvailable is false once the platform reported no capture hardware.
func (g *Gateway) DeviceAvailable() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Status != StatusUnavailable
}

// RequestPermission prompts the platform unless permission is already held.
// A denial is reported as (false, nil); a missing device as ErrNoCaptureDevice.
func (g *Gateway) RequestPermission(ctx context.Context) (bool, error) {
	if g.HasPermission() {
		return true, nil
	}
	v, err, _ := g.group.Do("request", func() (interface{}, error) {
		st, err := g.platform.Request(ctx)
		if err != nil {
			return nil, err
		}
		g.store(st)
		return st, nil
	})
	if err != nil {
		return false, err
	}
	switch v.(Status) {
	case StatusGranted:
		return true, nil
	case StatusUnavailable:
		return false, ErrNoCaptureDevice
	default:
		return false, nil
	}
}

// Revalidate refreshes the cache from the platform. Call it on every
// resume-from-background, since permissions change out-of-band.
func (g *Gateway) Revalidate(ctx context.Context) (PermissionState, error) {
	st, err := g.platform.Check(ctx)
	if err != nil {
		return g.State(), err
	}
	return g.store(st), nil
}

// Acquire gives owner exclusive use of the capture device.
func (g *Gateway) Acquire(owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status == StatusUnavailable {
		return ErrNoCaptureDevice
	}
	if !g.state.Granted {
		return ErrPermissionDenied
	}
	if g.owner != "" && g.owner != owner {
		return ErrCaptureBusy
	}
	g.owner = owner
	return nil
}

// Release drops owner's hold. Releasing a device held by someone else is a no-op.
func (g *Gateway) Release(owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == owner {
		g.owner = ""
	}
}

func (g *Gateway) Owner() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

func (g *Gateway) store(st Status) PermissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = PermissionState{Status: st, Granted: st == StatusGranted, CheckedAt: g.clock().UTC()}
	if !g.state.Granted {
		g.owner = ""
	}
	return g.state
}
