package wallet

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs without Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	wallets  map[string]*Wallet
	balances map[string]Balance
	ledger   []LedgerEntry
	actions  []AdminWalletAction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:  make(map[string]*Wallet),
		balances: make(map[string]Balance),
	}
}

func (s *MemoryStore) Post(ctx context.Context, p Posting) (Posted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := p.Entry.UserID
	w, ok := s.wallets[userID]
	if !ok {
		w = &Wallet{UserID: userID, Status: WalletStatusActive, CreatedAt: p.Entry.CreatedAt, UpdatedAt: p.Entry.CreatedAt}
		s.wallets[userID] = w
	}
	if w.Status != WalletStatusActive {
		return Posted{}, ErrWalletDisabled
	}

	for _, e := range s.ledger {
		if e.UserID == userID && e.IdempotencyKey == p.Entry.IdempotencyKey {
			out := Posted{Entry: e, Balance: s.balances[userID], Replayed: true}
			for i := range s.actions {
				if s.actions[i].RelatedLedgerID == e.ID {
					a := s.actions[i]
					out.Action = &a
				}
			}
			return out, nil
		}
	}

	s.ledger = append(s.ledger, p.Entry)
	b := s.balances[userID]
	b.UserID = userID
	b.Coins += p.Entry.Coins
	b.UpdatedAt = p.Entry.CreatedAt
	s.balances[userID] = b
	if p.Action != nil {
		s.actions = append(s.actions, *p.Action)
	}
	return Posted{Entry: p.Entry, Action: p.Action, Balance: b}, nil
}

func (s *MemoryStore) Balance(ctx context.Context, userID string) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[userID]; ok {
		return b, nil
	}
	return Balance{UserID: userID}, nil
}

func (s *MemoryStore) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t Totals
	payers := make(map[string]struct{})
	for _, e := range s.ledger {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		switch e.Type {
		case LedgerEntryTypePurchase:
			t.Purchases++
			t.CoinsSold += e.Coins
			t.Revenue += e.AmountPaid
			payers[e.UserID] = struct{}{}
		case LedgerEntryTypeAdminCredit:
			t.CoinsGranted += e.Coins
		}
	}
	t.PayingUsers = int64(len(payers))
	return t, nil
}

// Disable marks a wallet disabled; later postings fail.
func (s *MemoryStore) Disable(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		w = &Wallet{UserID: userID}
		s.wallets[userID] = w
	}
	w.Status = WalletStatusDisabled
}

// Entries returns a copy of the ledger.
func (s *MemoryStore) Entries() []LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LedgerEntry, len(s.ledger))
	copy(out, s.ledger)
	return out
}
