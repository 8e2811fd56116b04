package audit

// Schema creates the append-only audit table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
  id             TEXT PRIMARY KEY,
  user_id        TEXT NOT NULL,
  type           TEXT NOT NULL,
  session_id     TEXT NOT NULL DEFAULT '',
  transaction_id TEXT NOT NULL DEFAULT '',
  from_status    TEXT NOT NULL DEFAULT '',
  to_status      TEXT NOT NULL DEFAULT '',
  reason         TEXT NOT NULL DEFAULT '',
  coins          BIGINT NOT NULL DEFAULT 0,
  actor_user_id  TEXT NOT NULL DEFAULT '',
  actor_role     TEXT NOT NULL DEFAULT '',
  ip_address     TEXT NOT NULL DEFAULT '',
  message        TEXT NOT NULL DEFAULT '',
  metadata       TEXT NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_events_type_created_at_idx ON audit_events (type, created_at);
CREATE INDEX IF NOT EXISTS audit_events_user_created_at_idx ON audit_events (user_id, created_at);
`
