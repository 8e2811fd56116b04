package capability

import (
	"context"
	"sync"
)

// RemotePlatform is a Platform whose answers come from the device.
//
// Check returns the last reported status. Request asks the device to show the
// OS prompt (via the prompt callback) and waits for the next Report.
type RemotePlatform struct {
	mu      sync.Mutex
	status  Status
	prompt  func()
	waiters []chan Status
}

func NewRemotePlatform(initial Status) *RemotePlatform {
	if !initial.Valid() {
		initial = StatusUndetermined
	}
	return &RemotePlatform{status: initial}
}

// SetPrompt installs the callback used to ask the device for a prompt.
func (p *RemotePlatform) SetPrompt(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompt = fn
}

func (p *RemotePlatform) Check(ctx context.Context) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *RemotePlatform) Request(ctx context.Context) (Status, error) {
	p.mu.Lock()
	if p.status == StatusGranted || p.status == StatusUnavailable {
		st := p.status
		p.mu.Unlock()
		return st, nil
	}
	ch := make(chan Status, 1)
	p.waiters = append(p.waiters, ch)
	prompt := p.prompt
	p.mu.Unlock()

	if prompt != nil {
		prompt()
	}
	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Report records a device-reported status and wakes pending requests.
func (p *RemotePlatform) Report(st Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = st
	for _, ch := range p.waiters {
		ch <- st
	}
	p.waiters = nil
}
