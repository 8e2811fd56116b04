package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// FunnelRequest asks for the ring-to-purchase funnel over a window.
// UserID narrows the funnel to one user; empty means everyone.
type FunnelRequest struct {
	Range  TimeRange `json:"range"`
	UserID string    `json:"user_id,omitempty"`
}

// Funnel counts session transitions by outcome.
type Funnel struct {
	UserID   string `json:"user_id,omitempty"`
	Sessions int    `json:"sessions"`

	Rings     int `json:"rings"`
	Accepted  int `json:"accepted"`
	Declined  int `json:"declined"`
	Hangups   int `json:"hangups"`
	Teardowns int `json:"teardowns"`

	PaywallsShown     int   `json:"paywalls_shown"`
	PaywallsDismissed int   `json:"paywalls_dismissed"`
	Purchases         int   `json:"purchases"`
	PaymentFailures   int   `json:"payment_failures"`
	PaymentCancels    int   `json:"payment_cancels"`
	CoinsPurchased    int64 `json:"coins_purchased"`

	AnswerRate     float64 `json:"answer_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

// RevenueSummary is derived from immutable wallet ledger entries.
type RevenueSummary struct {
	Range TimeRange `json:"range"`

	Purchases    int64 `json:"purchases"`
	Revenue      int64 `json:"revenue"`
	CoinsSold    int64 `json:"coins_sold"`
	CoinsGranted int64 `json:"coins_granted"`
	PayingUsers  int64 `json:"paying_users"`

	AverageOrderValue int64 `json:"average_order_value"`
}
