package paywall

import (
	"errors"
	"sync"

	"companion-platform/internal/payment"
)

var ErrNotVisible = errors.New("paywall: not visible")

// View renders the overlay. Implementations must not block.
type View interface {
	ShowPaywall(listings []Listing)
	HidePaywall()
}

type EventKind string

const (
	EventSelected  EventKind = "selected"
	EventDismissed EventKind = "dismissed"
)

// Event is what the overlay reports back to the call machine.
// Intent is set only for EventSelected.
type Event struct {
	Kind   EventKind
	Intent *payment.Intent
}

// Presenter shows the catalog and turns user input into Events.
// Choosing or closing hides the overlay; each visible period yields at most one Event.
type Presenter struct {
	catalog Catalog
	view    View

	mu      sync.Mutex
	visible bool
}

func NewPresenter(catalog Catalog, view View) (*Presenter, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Presenter{catalog: catalog, view: view}, nil
}

func (p *Presenter) Catalog() Catalog { return p.catalog }

func (p *Presenter) Present() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		return
	}
	p.visible = true
	if p.view != nil {
		p.view.ShowPaywall(p.catalog.Listings())
	}
}

// Dismiss hides the overlay without producing an Event.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hideLocked()
}

func (p *Presenter) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Choose reports a package selection. Unknown ids leave the overlay up.
func (p *Presenter) Choose(id string) (Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return Event{}, ErrNotVisible
	}
	in, err := p.catalog.Select(id)
	if err != nil {
		return Event{}, err
	}
	p.hideLocked()
	return Event{Kind: EventSelected, Intent: &in}, nil
}

// Close reports that the user closed the overlay. No intent is built.
func (p *Presenter) Close() (Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return Event{}, ErrNotVisible
	}
	p.hideLocked()
	return Event{Kind: EventDismissed}, nil
}

func (p *Presenter) hideLocked() {
	if !p.visible {
		return
	}
	p.visible = false
	if p.view != nil {
		p.view.HidePaywall()
	}
}
