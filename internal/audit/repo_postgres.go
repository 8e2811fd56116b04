package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresRepo writes to audit_events. The table should carry an INSERT-only
// policy so rows can never be updated or deleted.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, user_id, type, session_id, transaction_id, from_status, to_status, reason, coins,
  actor_user_id, actor_role, ip_address, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		e.Type,
		e.SessionID,
		e.TransactionID,
		e.FromStatus,
		e.ToStatus,
		e.Reason,
		e.Coins,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	q := `
SELECT id, user_id, type, session_id, transaction_id, from_status, to_status, reason, coins,
       actor_user_id, actor_role, ip_address, message, metadata, created_at
FROM audit_events`
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY created_at"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Type,
			&e.SessionID,
			&e.TransactionID,
			&e.FromStatus,
			&e.ToStatus,
			&e.Reason,
			&e.Coins,
			&e.ActorUserID,
			&e.ActorRole,
			&e.IPAddress,
			&e.Message,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
