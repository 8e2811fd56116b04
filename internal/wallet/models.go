package wallet

import "time"

// Wallet holds a user's coins.
// Invariant: the balance is derived from immutable ledger entries.
// No code may change a balance without writing a ledger entry.
type Wallet struct {
	UserID string       `json:"user_id" db:"user_id"`
	Status WalletStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusDisabled WalletStatus = "disabled"
)

// LedgerEntry is an immutable append-only coin movement.
type LedgerEntry struct {
	ID     string          `json:"id" db:"id"`
	UserID string          `json:"user_id" db:"user_id"`
	Type   LedgerEntryType `json:"type" db:"type"`

	// Coins is signed: credits are positive.
	Coins int64 `json:"coins" db:"coins"`

	// AmountPaid is the rupee amount behind a purchase; zero for admin grants.
	AmountPaid int64 `json:"amount_paid" db:"amount_paid"`

	// ExternalRef is the gateway transaction id for purchases.
	ExternalRef string `json:"external_ref,omitempty" db:"external_ref"`

	// IdempotencyKey makes retries (webhook + SDK callback) safe.
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type LedgerEntryType string

const (
	LedgerEntryTypePurchase    LedgerEntryType = "purchase"
	LedgerEntryTypeAdminCredit LedgerEntryType = "admin_credit"
)

// AdminWalletAction records a manual grant. The coins themselves are in the
// related ledger entry.
type AdminWalletAction struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	AdminUserID string `json:"admin_user_id" db:"admin_user_id"`
	AdminRole   string `json:"admin_role" db:"admin_role"`

	Reason string `json:"reason" db:"reason"`
	Coins  int64  `json:"coins" db:"coins"`

	RelatedLedgerID string `json:"related_ledger_id" db:"related_ledger_id"`
	Metadata        string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Balance struct {
	UserID    string    `json:"user_id"`
	Coins     int64     `json:"coins"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals summarises purchases over a window.
type Totals struct {
	Purchases    int64 `json:"purchases"`
	CoinsSold    int64 `json:"coins_sold"`
	Revenue      int64 `json:"revenue"`
	CoinsGranted int64 `json:"coins_granted"`
	PayingUsers  int64 `json:"paying_users"`
}
