package calls

import "time"

// Session is one simulated call, from ring to hang-up.
//
// Invariants:
// - At most one Session per Machine is live (ringing, active or paywall_pending).
// - Caller and Media never change once set.
// - CameraEnabled is only true while the capability gateway reports a grant.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Status Status `json:"status"`

	Caller Caller `json:"caller"`

	// MediaPool is what the caller was offered with; Media is the clip picked at
	// accept time. Placeholder is set when the pool was empty.
	MediaPool   []string `json:"media_pool,omitempty"`
	Media       string   `json:"media,omitempty"`
	Placeholder bool     `json:"placeholder"`

	MicMuted      bool `json:"mic_muted"`
	CameraEnabled bool `json:"camera_enabled"`
	SpeakerOn     bool `json:"speaker_on"`

	StartedAt   time.Time `json:"started_at"`
	ActiveSince time.Time `json:"active_since,omitempty"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	EndReason   string    `json:"end_reason,omitempty"`

	PaywallCount int `json:"paywall_count"`
	Purchases    int `json:"purchases"`
}

// Caller is the profile shown on the call screen.
type Caller struct {
	Name          string `json:"name"`
	ImageURL      string `json:"image_url,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
}

// Candidate is a profile the scheduler may ring with.
type Candidate struct {
	Caller    Caller   `json:"caller"`
	MediaPool []string `json:"media_pool"`
}

type Status string

const (
	StatusIdle           Status = "idle"
	StatusRinging        Status = "ringing"
	StatusActive         Status = "active"
	StatusPaywallPending Status = "paywall_pending"
	StatusEnded          Status = "ended"
)

// Live reports whether a session in this status blocks a new one.
func (s Status) Live() bool {
	switch s {
	case StatusRinging, StatusActive, StatusPaywallPending:
		return true
	default:
		return false
	}
}

// Snapshot is a point-in-time copy of the machine, safe to hand out.
type Snapshot struct {
	UserID            string    `json:"user_id"`
	Status            Status    `json:"status"`
	Session           *Session  `json:"session,omitempty"`
	SchedulerArmed    bool      `json:"scheduler_armed"`
	PaywallVisible    bool      `json:"paywall_visible"`
	PaywallDueAt      time.Time `json:"paywall_due_at,omitempty"`
	PermissionPending bool      `json:"permission_pending"`
	TransactionID     string    `json:"transaction_id,omitempty"`
	// CaptureUnavailable is set once the device reported no camera.
	CaptureUnavailable bool `json:"capture_unavailable"`
}

// Transition is reported to observers after every status change.
type Transition struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`

	// Coins is set on purchase transitions.
	Coins int64 `json:"coins,omitempty"`
}

// End reasons.
const (
	ReasonRang             = "rang"
	ReasonAccepted         = "accepted"
	ReasonDeclined         = "declined"
	ReasonHangup           = "hangup"
	ReasonPaywallDue       = "paywall_due"
	ReasonPaywallDismissed = "paywall_dismissed"
	ReasonPurchased        = "purchased"
	ReasonPaymentFailed    = "payment_failed"
	ReasonPaymentCancelled = "payment_cancelled"
	ReasonTeardown         = "teardown"
	ReasonClosed           = "closed"
)

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.MediaPool != nil {
		out.MediaPool = append([]string(nil), s.MediaPool...)
	}
	return &out
}
