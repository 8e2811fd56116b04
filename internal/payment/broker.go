package payment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Broker is the server-side Handoff. It parks each transaction until the
// device (SDK callback) or the gateway (webhook) reports the outcome.
//
// The first reported outcome wins; later reports get ErrAlreadyResolved for
// ResolvedRetention, then ErrUnknownTransaction.
type Broker struct {
	adapter *Adapter

	mu       sync.Mutex
	pending  map[string]*Pending
	resolved map[string]struct{}
	order    []resolvedTxn // resolution order, oldest first

	newTxnID func() string
	now      func() time.Time
}

// ResolvedRetention bounds how long a resolved transaction id is remembered.
// Gateway webhooks retry well within it.
const ResolvedRetention = 24 * time.Hour

type resolvedTxn struct {
	id string
	at time.Time
}

func NewBroker(adapter *Adapter) *Broker {
	return &Broker{
		adapter:  adapter,
		pending:  make(map[string]*Pending),
		resolved: make(map[string]struct{}),
		newTxnID: newTransactionID,
		now:      time.Now,
	}
}

func (b *Broker) Initiate(ctx context.Context, order Order) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if order.Amount <= 0 || order.Coins <= 0 || order.PackageID == "" {
		return nil, ErrInvalidOrder
	}
	if order.UserID == "" || order.SessionID == "" {
		return nil, ErrInvalidOrder
	}

	txnID := b.newTxnID()
	p := newPending(txnID, order, b.adapter.Checkout(txnID, order))

	b.mu.Lock()
	b.pruneLocked()
	b.pending[txnID] = p
	b.mu.Unlock()
	return p, nil
}

// Resolve delivers the outcome for txnID.
func (b *Broker) Resolve(txnID string, r Result) error {
	if !r.Outcome.Valid() {
		return ErrInvalidOutcome
	}
	b.mu.Lock()
	b.pruneLocked()
	p, ok := b.pending[txnID]
	if ok {
		delete(b.pending, txnID)
		b.resolved[txnID] = struct{}{}
		b.order = append(b.order, resolvedTxn{id: txnID, at: b.now()})
	} else if _, done := b.resolved[txnID]; done {
		b.mu.Unlock()
		return ErrAlreadyResolved
	}
	b.mu.Unlock()
	if !ok {
		return ErrUnknownTransaction
	}
	p.resolve(r)
	return nil
}

func (b *Broker) pruneLocked() {
	cutoff := b.now().Add(-ResolvedRetention)
	n := 0
	for n < len(b.order) && !b.order[n].at.After(cutoff) {
		delete(b.resolved, b.order[n].id)
		n++
	}
	if n > 0 {
		b.order = append(b.order[:0], b.order[n:]...)
	}
}

func (b *Broker) Abandon(txnID, reason string) {
	_ = b.Resolve(txnID, Result{Outcome: OutcomeCancelled, Reason: reason})
}

// Lookup returns the in-flight transaction, if any.
func (b *Broker) Lookup(txnID string) (*Pending, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[txnID]
	return p, ok
}

// The gateway caps transaction ids at 25 characters.
func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:25]
}
