package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"companion-platform/pkg/utils"
)

// PostgresStore assumes the following tables exist:
// - wallets (user_id primary key)
// - wallet_ledger (immutable append-only, UNIQUE (user_id, idempotency_key))
// - wallet_balances (projection)
// - admin_wallet_actions
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Post(ctx context.Context, p Posting) (Posted, error) {
	var out Posted
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		w, err := ensureWallet(ctx, tx, p.Entry.UserID, p.Entry.CreatedAt)
		if err != nil {
			return err
		}
		if w.Status != WalletStatusActive {
			return ErrWalletDisabled
		}

		if existing, ok, err := findLedgerByIdempotency(ctx, tx, p.Entry.UserID, p.Entry.IdempotencyKey); err != nil {
			return err
		} else if ok {
			out.Entry = existing
			out.Replayed = true
			if act, ok, err := findAdminActionByLedger(ctx, tx, existing.UserID, existing.ID); err != nil {
				return err
			} else if ok {
				out.Action = &act
			}
			b, err := getBalance(ctx, tx, existing.UserID)
			if err != nil {
				return err
			}
			out.Balance = b
			return nil
		}

		if err := insertLedger(ctx, tx, p.Entry); err != nil {
			return err
		}
		b, err := applyBalanceDelta(ctx, tx, p.Entry.UserID, p.Entry.Coins, p.Entry.CreatedAt)
		if err != nil {
			return err
		}
		if p.Action != nil {
			if err := insertAdminAction(ctx, tx, *p.Action); err != nil {
				return err
			}
		}
		out = Posted{Entry: p.Entry, Action: p.Action, Balance: b}
		return nil
	})
	return out, err
}

func (s *PostgresStore) Balance(ctx context.Context, userID string) (Balance, error) {
	b, err := getBalance(ctx, s.db, userID)
	if errors.Is(err, ErrNotFound) {
		return Balance{UserID: userID}, nil
	}
	return b, err
}

func (s *PostgresStore) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	const q = `
SELECT
  COUNT(*) FILTER (WHERE type = 'purchase'),
  COALESCE(SUM(coins) FILTER (WHERE type = 'purchase'), 0),
  COALESCE(SUM(amount_paid) FILTER (WHERE type = 'purchase'), 0),
  COALESCE(SUM(coins) FILTER (WHERE type = 'admin_credit'), 0),
  COUNT(DISTINCT user_id) FILTER (WHERE type = 'purchase')
FROM wallet_ledger
WHERE created_at >= $1 AND created_at < $2
`
	var t Totals
	if err := s.db.QueryRowContext(ctx, q, from, to).Scan(
		&t.Purchases,
		&t.CoinsSold,
		&t.Revenue,
		&t.CoinsGranted,
		&t.PayingUsers,
	); err != nil {
		return Totals{}, err
	}
	return t, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ensureWallet creates the wallet on first use and locks its row to
// serialize concurrent postings for the same user.
func ensureWallet(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (Wallet, error) {
	const insert = `
INSERT INTO wallets (user_id, status, created_at, updated_at)
VALUES ($1, 'active', $2, $2)
ON CONFLICT (user_id) DO NOTHING
`
	if _, err := tx.ExecContext(ctx, insert, userID, now); err != nil {
		return Wallet{}, err
	}

	const lock = `
SELECT user_id, status, created_at, updated_at
FROM wallets
WHERE user_id = $1
FOR UPDATE
`
	var w Wallet
	if err := tx.QueryRowContext(ctx, lock, userID).Scan(
		&w.UserID,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

func getBalance(ctx context.Context, q queryer, userID string) (Balance, error) {
	const query = `
SELECT user_id, coins, updated_at
FROM wallet_balances
WHERE user_id = $1
`
	var b Balance
	if err := q.QueryRowContext(ctx, query, userID).Scan(
		&b.UserID,
		&b.Coins,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Balance{}, ErrNotFound
		}
		return Balance{}, err
	}
	return b, nil
}

func findLedgerByIdempotency(ctx context.Context, tx *sql.Tx, userID, key string) (LedgerEntry, bool, error) {
	const q = `
SELECT id, user_id, type, coins, amount_paid, external_ref, idempotency_key, metadata, created_at
FROM wallet_ledger
WHERE user_id = $1 AND idempotency_key = $2
LIMIT 1
`
	var e LedgerEntry
	err := tx.QueryRowContext(ctx, q, userID, key).Scan(
		&e.ID,
		&e.UserID,
		&e.Type,
		&e.Coins,
		&e.AmountPaid,
		&e.ExternalRef,
		&e.IdempotencyKey,
		&e.Metadata,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LedgerEntry{}, false, nil
		}
		return LedgerEntry{}, false, err
	}
	return e, true, nil
}

func insertLedger(ctx context.Context, tx *sql.Tx, e LedgerEntry) error {
	const q = `
INSERT INTO wallet_ledger (
  id, user_id, type, coins, amount_paid, external_ref, idempotency_key, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := tx.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		e.Type,
		e.Coins,
		e.AmountPaid,
		e.ExternalRef,
		e.IdempotencyKey,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func applyBalanceDelta(ctx context.Context, tx *sql.Tx, userID string, delta int64, now time.Time) (Balance, error) {
	const q = `
INSERT INTO wallet_balances (user_id, coins, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (user_id)
DO UPDATE SET coins = wallet_balances.coins + EXCLUDED.coins,
              updated_at = EXCLUDED.updated_at
RETURNING user_id, coins, updated_at
`
	var b Balance
	if err := tx.QueryRowContext(ctx, q, userID, delta, now).Scan(
		&b.UserID,
		&b.Coins,
		&b.UpdatedAt,
	); err != nil {
		return Balance{}, err
	}
	return b, nil
}

func insertAdminAction(ctx context.Context, tx *sql.Tx, a AdminWalletAction) error {
	const q = `
INSERT INTO admin_wallet_actions (
  id, user_id, admin_user_id, admin_role, reason, coins, related_ledger_id, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := tx.ExecContext(ctx, q,
		a.ID,
		a.UserID,
		a.AdminUserID,
		a.AdminRole,
		a.Reason,
		a.Coins,
		a.RelatedLedgerID,
		a.Metadata,
		a.CreatedAt,
	)
	return err
}

func findAdminActionByLedger(ctx context.Context, tx *sql.Tx, userID, ledgerID string) (AdminWalletAction, bool, error) {
	const q = `
SELECT id, user_id, admin_user_id, admin_role, reason, coins, related_ledger_id, metadata, created_at
FROM admin_wallet_actions
WHERE user_id = $1 AND related_ledger_id = $2
LIMIT 1
`
	var a AdminWalletAction
	err := tx.QueryRowContext(ctx, q, userID, ledgerID).Scan(
		&a.ID,
		&a.UserID,
		&a.AdminUserID,
		&a.AdminRole,
		&a.Reason,
		&a.Coins,
		&a.RelatedLedgerID,
		&a.Metadata,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AdminWalletAction{}, false, nil
		}
		return AdminWalletAction{}, false, err
	}
	return a, true, nil
}
