package reporting

import (
	"context"
	"sync"
	"time"

	"companion-platform/internal/audit"
	"companion-platform/internal/wallet"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Events []audit.Event
	Totals wallet.Totals
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListTransitions(ctx context.Context, userID string, from, to time.Time) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, 0)
	for _, e := range r.Events {
		if e.Type != audit.EventTypeCallTransition {
			continue
		}
		if userID != "" && e.UserID != userID {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) LedgerTotals(ctx context.Context, from, to time.Time) (wallet.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Totals, nil
}
