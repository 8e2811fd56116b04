package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required; it is the subject of the event.
// - Audit is best-effort; critical flows never block on it.
type Event struct {
	ID     string    `json:"id" db:"id"`
	UserID string    `json:"user_id" db:"user_id"`
	Type   EventType `json:"type" db:"type"`

	SessionID     string `json:"session_id,omitempty" db:"session_id"`
	TransactionID string `json:"transaction_id,omitempty" db:"transaction_id"`

	FromStatus string `json:"from_status,omitempty" db:"from_status"`
	ToStatus   string `json:"to_status,omitempty" db:"to_status"`
	Reason     string `json:"reason,omitempty" db:"reason"`
	Coins      int64  `json:"coins,omitempty" db:"coins"`

	// Actor fields are set for admin actions.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	Message  string `json:"message,omitempty" db:"message"`
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallTransition EventType = "call_transition"
	EventTypePaymentResult  EventType = "payment_result"
	EventTypeAdminAction    EventType = "admin_action"
)

// Filter selects events in [From, To). Empty fields match everything.
type Filter struct {
	UserID string
	Type   EventType
	From   time.Time
	To     time.Time
	Limit  int
}

func (f Filter) match(e Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
