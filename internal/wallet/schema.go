package wallet

// Schema creates the wallet tables. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS wallets (
  user_id    TEXT PRIMARY KEY,
  status     TEXT NOT NULL DEFAULT 'active',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_balances (
  user_id    TEXT PRIMARY KEY REFERENCES wallets (user_id),
  coins      BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_ledger (
  id              TEXT PRIMARY KEY,
  user_id         TEXT NOT NULL REFERENCES wallets (user_id),
  type            TEXT NOT NULL,
  coins           BIGINT NOT NULL CHECK (coins > 0),
  amount_paid     BIGINT NOT NULL DEFAULT 0,
  external_ref    TEXT NOT NULL DEFAULT '',
  idempotency_key TEXT NOT NULL,
  metadata        TEXT NOT NULL DEFAULT '',
  created_at      TIMESTAMPTZ NOT NULL,
  UNIQUE (user_id, idempotency_key)
);

CREATE INDEX IF NOT EXISTS wallet_ledger_created_at_idx ON wallet_ledger (created_at);

CREATE TABLE IF NOT EXISTS admin_wallet_actions (
  id                TEXT PRIMARY KEY,
  user_id           TEXT NOT NULL,
  admin_user_id     TEXT NOT NULL,
  admin_role        TEXT NOT NULL,
  reason            TEXT NOT NULL,
  coins             BIGINT NOT NULL,
  related_ledger_id TEXT NOT NULL REFERENCES wallet_ledger (id),
  metadata          TEXT NOT NULL DEFAULT '',
  created_at        TIMESTAMPTZ NOT NULL
);
`
