package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion-platform/internal/payment"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }
	return svc, store
}

func TestValidateCredit(t *testing.T) {
	if err := validateCredit("u", 1, "k"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := validateCredit("", 1, "k"); err == nil {
		t.Fatalf("expected error")
	}
	if err := validateCredit("u", 0, "k"); err == nil {
		t.Fatalf("expected error for zero coins")
	}
}

func TestService_GrantIsIdempotentPerTransaction(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	e := payment.Entitlement{TransactionID: "txn1", PackageID: "pack4", Coins: 650, Amount: 500}

	if err := svc.Grant(ctx, "u1", e); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := svc.Grant(ctx, "u1", e); err != nil {
		t.Fatalf("Grant replay: %v", err)
	}

	b, err := svc.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if b.Coins != 650 {
		t.Fatalf("expected 650 coins, got %d", b.Coins)
	}
	entries := store.Entries()
	if len(entries) != 1 || entries[0].ExternalRef != "txn1" || entries[0].IdempotencyKey != PurchaseKey("txn1") {
		t.Fatalf("unexpected ledger %+v", entries)
	}
}

func TestService_GetBalanceOfUnknownUserIsZero(t *testing.T) {
	svc, _ := newTestService()
	b, err := svc.GetBalance(context.Background(), "nobody")
	if err != nil || b.Coins != 0 || b.UserID != "nobody" {
		t.Fatalf("expected zero balance, got %+v err=%v", b, err)
	}
}

func TestService_CreditPurchase_RejectsInvalidArgs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []CreditRequest{
		{Coins: 0, AmountPaid: 100, ExternalRef: "t", IdempotencyKey: "k"},
		{Coins: 10, AmountPaid: 0, ExternalRef: "t", IdempotencyKey: "k"},
		{Coins: 10, AmountPaid: 100, ExternalRef: "", IdempotencyKey: "k"},
		{Coins: 10, AmountPaid: 100, ExternalRef: "t", IdempotencyKey: ""},
	}
	for i, req := range cases {
		if _, _, err := svc.CreditPurchase(ctx, "u1", req); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
	if _, _, err := svc.CreditPurchase(ctx, "", CreditRequest{Coins: 1, AmountPaid: 1, ExternalRef: "t", IdempotencyKey: "k"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for missing user, got %v", err)
	}
}

func TestService_AdminManualCredit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	act, entry, bal, err := svc.AdminManualCredit(ctx, "u1", "admin1", "admin", AdminCreditRequest{Coins: 100, Reason: "goodwill", IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("AdminManualCredit: %v", err)
	}
	if act.RelatedLedgerID != entry.ID || entry.Type != LedgerEntryTypeAdminCredit || bal.Coins != 100 {
		t.Fatalf("unexpected result action=%+v entry=%+v bal=%+v", act, entry, bal)
	}

	again, entry2, bal2, err := svc.AdminManualCredit(ctx, "u1", "admin1", "admin", AdminCreditRequest{Coins: 100, Reason: "goodwill", IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if again.ID != act.ID || entry2.ID != entry.ID || bal2.Coins != 100 {
		t.Fatalf("expected replay to return original posting")
	}
}

func TestService_AdminManualCredit_RejectsInvalidArgs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	req := AdminCreditRequest{Coins: 100, Reason: "refund", IdempotencyKey: "k"}

	if _, _, _, err := svc.AdminManualCredit(ctx, "u1", "", "admin", req); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument (missing admin user), got %v", err)
	}
	if _, _, _, err := svc.AdminManualCredit(ctx, "u1", "a", "", req); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument (missing admin role), got %v", err)
	}
	noReason := req
	noReason.Reason = ""
	if _, _, _, err := svc.AdminManualCredit(ctx, "u1", "a", "admin", noReason); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument (missing reason), got %v", err)
	}
}

func TestService_DisabledWalletRejectsCredit(t *testing.T) {
	svc, store := newTestService()
	store.Disable("u1")
	err := svc.Grant(context.Background(), "u1", payment.Entitlement{TransactionID: "t", Coins: 1, Amount: 1})
	if !errors.Is(err, ErrWalletDisabled) {
		t.Fatalf("expected ErrWalletDisabled, got %v", err)
	}
}

func TestService_Totals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_ = svc.Grant(ctx, "u1", payment.Entitlement{TransactionID: "t1", Coins: 650, Amount: 500})
	_ = svc.Grant(ctx, "u2", payment.Entitlement{TransactionID: "t2", Coins: 120, Amount: 100})
	_ = svc.Grant(ctx, "u1", payment.Entitlement{TransactionID: "t3", Coins: 120, Amount: 100})
	_, _, _, _ = svc.AdminManualCredit(ctx, "u3", "a", "admin", AdminCreditRequest{Coins: 50, Reason: "r", IdempotencyKey: "k"})

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tot, err := svc.Totals(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	want := Totals{Purchases: 3, CoinsSold: 890, Revenue: 700, CoinsGranted: 50, PayingUsers: 2}
	if tot != want {
		t.Fatalf("expected %+v, got %+v", want, tot)
	}
	if _, err := svc.Totals(ctx, from, from); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty window, got %v", err)
	}
}
