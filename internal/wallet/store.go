package wallet

import (
	"context"
	"time"
)

// Posting is one idempotent write: a ledger entry plus, for admin grants,
// the action that caused it.
type Posting struct {
	Entry  LedgerEntry
	Action *AdminWalletAction
}

// Posted is the outcome of a Posting. Replayed is true when the idempotency
// key had already been used; Entry is then the original entry.
type Posted struct {
	Entry    LedgerEntry
	Action   *AdminWalletAction
	Balance  Balance
	Replayed bool
}

// Store persists the ledger. Post must be atomic: wallet creation, the
// idempotency check, the entry and the balance projection commit together.
type Store interface {
	Post(ctx context.Context, p Posting) (Posted, error)
	Balance(ctx context.Context, userID string) (Balance, error)
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
}
