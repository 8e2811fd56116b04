package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"companion-platform/internal/payment"

	"github.com/google/uuid"
)

// Service credits coins to users.
//
// Invariants:
// - No balance change without a ledger entry.
// - The ledger is append-only.
// - Every posting carries an idempotency key; replays return the original entry.
type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

type CreditRequest struct {
	Coins          int64  `json:"coins"`
	AmountPaid     int64  `json:"amount_paid"`
	ExternalRef    string `json:"external_ref,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
	Metadata       string `json:"metadata,omitempty"`
}

type AdminCreditRequest struct {
	Coins          int64  `json:"coins"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key"`
	Metadata       string `json:"metadata,omitempty"`
}

var (
	ErrNotFound        = errors.New("wallet: not found")
	ErrInvalidArgument = errors.New("wallet: invalid argument")
	ErrWalletDisabled  = errors.New("wallet: disabled")
)

func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	if userID == "" {
		return Balance{}, ErrInvalidArgument
	}
	return s.store.Balance(ctx, userID)
}

// CreditPurchase records coins bought through the payment gateway.
func (s *Service) CreditPurchase(ctx context.Context, userID string, req CreditRequest) (LedgerEntry, Balance, error) {
	if err := validateCredit(userID, req.Coins, req.IdempotencyKey); err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if req.AmountPaid <= 0 || req.ExternalRef == "" {
		return LedgerEntry{}, Balance{}, ErrInvalidArgument
	}

	entry := LedgerEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           LedgerEntryTypePurchase,
		Coins:          req.Coins,
		AmountPaid:     req.AmountPaid,
		ExternalRef:    req.ExternalRef,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
		CreatedAt:      s.clock().UTC(),
	}
	out, err := s.store.Post(ctx, Posting{Entry: entry})
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	return out.Entry, out.Balance, nil
}

// Grant credits a successful payment. Calling it twice for the same
// transaction credits once.
func (s *Service) Grant(ctx context.Context, userID string, e payment.Entitlement) error {
	_, _, err := s.CreditPurchase(ctx, userID, CreditRequest{
		Coins:          e.Coins,
		AmountPaid:     e.Amount,
		ExternalRef:    e.TransactionID,
		IdempotencyKey: PurchaseKey(e.TransactionID),
		Metadata:       fmt.Sprintf(`{"package_id":%q}`, e.PackageID),
	})
	return err
}

// PurchaseKey is the idempotency key used for gateway transactions.
func PurchaseKey(txnID string) string { return "purchase:" + txnID }

func (s *Service) AdminManualCredit(ctx context.Context, userID, adminUserID, adminRole string, req AdminCreditRequest) (AdminWalletAction, LedgerEntry, Balance, error) {
	if adminUserID == "" || adminRole == "" {
		return AdminWalletAction{}, LedgerEntry{}, Balance{}, ErrInvalidArgument
	}
	if req.Reason == "" {
		return AdminWalletAction{}, LedgerEntry{}, Balance{}, ErrInvalidArgument
	}
	if err := validateCredit(userID, req.Coins, req.IdempotencyKey); err != nil {
		return AdminWalletAction{}, LedgerEntry{}, Balance{}, err
	}

	now := s.clock().UTC()
	entry := LedgerEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           LedgerEntryTypeAdminCredit,
		Coins:          req.Coins,
		ExternalRef:    "admin_manual_credit",
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
		CreatedAt:      now,
	}
	action := AdminWalletAction{
		ID:              uuid.NewString(),
		UserID:          userID,
		AdminUserID:     adminUserID,
		AdminRole:       adminRole,
		Reason:          req.Reason,
		Coins:           req.Coins,
		RelatedLedgerID: entry.ID,
		Metadata:        req.Metadata,
		CreatedAt:       now,
	}

	out, err := s.store.Post(ctx, Posting{Entry: entry, Action: &action})
	if err != nil {
		return AdminWalletAction{}, LedgerEntry{}, Balance{}, err
	}
	var outAction AdminWalletAction
	if out.Action != nil {
		outAction = *out.Action
	}
	return outAction, out.Entry, out.Balance, nil
}

// Totals reports purchase totals in [from, to).
func (s *Service) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	if !from.Before(to) {
		return Totals{}, ErrInvalidArgument
	}
	return s.store.Totals(ctx, from, to)
}

func validateCredit(userID string, coins int64, idempotencyKey string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if idempotencyKey == "" {
		return ErrInvalidArgument
	}
	if coins <= 0 {
		return ErrInvalidArgument
	}
	return nil
}
