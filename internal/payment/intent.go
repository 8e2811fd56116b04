// Package payment hands a purchase off to the external payment gateway and
// folds its callbacks into a single Result per transaction.
package payment

import (
	"context"
	"errors"
	"sync"
)

// Intent is what a paywall selection turns into. Numeric fields are copied
// verbatim from the catalog entry.
type Intent struct {
	PackageID string `json:"package_id"`
	Amount    int64  `json:"amount"`
	Coins     int64  `json:"coins"`
}

// Customer carries the payer fields the gateway requires.
type Customer struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Order binds an Intent to the call session that produced it.
type Order struct {
	Intent
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	Customer  Customer `json:"customer"`
}

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeCancelled:
		return true
	default:
		return false
	}
}

// Entitlement is the coin grant produced by a successful payment.
type Entitlement struct {
	TransactionID string `json:"transaction_id"`
	PackageID     string `json:"package_id"`
	Coins         int64  `json:"coins"`
	Amount        int64  `json:"amount"`
}

// Result is the single terminal outcome of a handoff.
// Entitlement is set only when Outcome is OutcomeSuccess.
type Result struct {
	TransactionID string       `json:"transaction_id"`
	Outcome       Outcome      `json:"outcome"`
	Entitlement   *Entitlement `json:"entitlement,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

var (
	ErrInvalidOrder       = errors.New("payment: invalid order")
	ErrUnknownTransaction = errors.New("payment: unknown transaction")
	ErrAlreadyResolved    = errors.New("payment: transaction already resolved")
	ErrInvalidOutcome     = errors.New("payment: invalid outcome")
	ErrHashMismatch       = errors.New("payment: callback hash mismatch")
)

// Handoff starts a payment. Initiate returns as soon as the checkout payload
// is ready; the outcome arrives later on Pending.Done.
type Handoff interface {
	Initiate(ctx context.Context, order Order) (*Pending, error)
	// Abandon resolves an unfinished transaction as cancelled.
	Abandon(txnID, reason string)
}

// Pending is an in-flight transaction.
type Pending struct {
	TransactionID string
	Order         Order
	Checkout      Checkout

	once sync.Once
	done chan Result
}

func newPending(txnID string, order Order, checkout Checkout) *Pending {
	return &Pending{TransactionID: txnID, Order: order, Checkout: checkout, done: make(chan Result, 1)}
}

// Done delivers exactly one Result.
func (p *Pending) Done() <-chan Result { return p.done }

func (p *Pending) resolve(r Result) bool {
	resolved := false
	p.once.Do(func() {
		r.TransactionID = p.TransactionID
		if r.Outcome == OutcomeSuccess {
			r.Entitlement = &Entitlement{
				TransactionID: p.TransactionID,
				PackageID:     p.Order.PackageID,
				Coins:         p.Order.Coins,
				Amount:        p.Order.Amount,
			}
		} else {
			r.Entitlement = nil
		}
		p.done <- r
		resolved = true
	})
	return resolved
}
