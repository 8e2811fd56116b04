package calls

import (
	"sync"
	"time"

	"companion-platform/internal/payment"
	"companion-platform/internal/paywall"
)

// Navigator receives the screen changes the machine asks the device to make.
// Implementations must not block; they are called on the machine's loop.
type Navigator interface {
	EnterCallScreen(p CallScreenParams)
	EnterPaymentScreen(p PaymentScreenParams)
	GoBack(reason string)
	PromptSettings(reason string)
}

// CallScreenParams is what the call screen is opened with.
type CallScreenParams struct {
	SessionID     string   `json:"session_id"`
	MediaPool     []string `json:"mediaPool"`
	CallerName    string   `json:"callerName"`
	CallerImage   string   `json:"callerImage,omitempty"`
	BackgroundURL string   `json:"backgroundImage,omitempty"`
}

// PaymentScreenParams is what the payment screen is opened with.
type PaymentScreenParams struct {
	SessionID     string           `json:"session_id"`
	TransactionID string           `json:"transaction_id"`
	Amount        int64            `json:"amount"`
	Coins         int64            `json:"coins"`
	Checkout      payment.Checkout `json:"checkout"`
}

type CommandKind string

const (
	CommandEnterCallScreen    CommandKind = "enter_call_screen"
	CommandEnterPaymentScreen CommandKind = "enter_payment_screen"
	CommandGoBack             CommandKind = "go_back"
	CommandPromptSettings     CommandKind = "prompt_settings"
	CommandShowPaywall        CommandKind = "show_paywall"
	CommandHidePaywall        CommandKind = "hide_paywall"
	CommandRequestPermission  CommandKind = "request_permission"
)

// Command is one queued instruction for the device.
type Command struct {
	Seq     int64       `json:"seq"`
	Kind    CommandKind `json:"kind"`
	At      time.Time   `json:"at"`
	Reason  string      `json:"reason,omitempty"`
	Payload any         `json:"payload,omitempty"`
}

// Outbox queues commands until the device polls for them.
// When full, the oldest command is dropped.
type Outbox struct {
	mu      sync.Mutex
	clock   func() time.Time
	limit   int
	seq     int64
	queue   []Command
	dropped int64
}

func NewOutbox(limit int) *Outbox {
	if limit <= 0 {
		limit = 32
	}
	return &Outbox{clock: time.Now, limit: limit}
}

func (o *Outbox) push(kind CommandKind, reason string, payload any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	if len(o.queue) == o.limit {
		o.queue = o.queue[1:]
		o.dropped++
	}
	o.queue = append(o.queue, Command{Seq: o.seq, Kind: kind, At: o.clock().UTC(), Reason: reason, Payload: payload})
}

// Drain returns and removes every queued command, oldest first.
func (o *Outbox) Drain() []Command {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	return out
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *Outbox) Dropped() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *Outbox) EnterCallScreen(p CallScreenParams) {
	o.push(CommandEnterCallScreen, "", p)
}

func (o *Outbox) EnterPaymentScreen(p PaymentScreenParams) {
	o.push(CommandEnterPaymentScreen, "", p)
}

func (o *Outbox) GoBack(reason string) { o.push(CommandGoBack, reason, nil) }

func (o *Outbox) PromptSettings(reason string) { o.push(CommandPromptSettings, reason, nil) }

func (o *Outbox) ShowPaywall(listings []paywall.Listing) {
	o.push(CommandShowPaywall, "", listings)
}

func (o *Outbox) HidePaywall() { o.push(CommandHidePaywall, "", nil) }

// RequestPermission asks the device to show the OS camera prompt.
func (o *Outbox) RequestPermission() { o.push(CommandRequestPermission, "camera", nil) }
