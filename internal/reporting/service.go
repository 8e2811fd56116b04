package reporting

import (
	"context"
	"errors"
	"time"

	"companion-platform/internal/audit"
	"companion-platform/internal/calls"
	"companion-platform/internal/wallet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting. Implementations read
// immutable sources only: the audit trail and the wallet ledger.
type Repository interface {
	ListTransitions(ctx context.Context, userID string, from, to time.Time) ([]audit.Event, error)
	LedgerTotals(ctx context.Context, from, to time.Time) (wallet.Totals, error)
}

// Sources reads from the live audit and wallet services.
type Sources struct {
	Audit  *audit.Service
	Wallet *wallet.Service
}

func (s Sources) ListTransitions(ctx context.Context, userID string, from, to time.Time) ([]audit.Event, error) {
	return s.Audit.List(ctx, audit.Filter{UserID: userID, Type: audit.EventTypeCallTransition, From: from, To: to})
}

func (s Sources) LedgerTotals(ctx context.Context, from, to time.Time) (wallet.Totals, error) {
	return s.Wallet.Totals(ctx, from, to)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validRange(r TimeRange) bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (s *Service) Funnel(ctx context.Context, req FunnelRequest) (Funnel, error) {
	if !validRange(req.Range) {
		return Funnel{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return Funnel{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListTransitions(ctx, req.UserID, req.Range.From, req.Range.To)
	if err != nil {
		return Funnel{}, err
	}

	out := Funnel{UserID: req.UserID}
	sessions := make(map[string]struct{})
	for _, e := range rows {
		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}
		if e.ToStatus == string(calls.StatusPaywallPending) {
			out.PaywallsShown++
		}
		switch e.Reason {
		case calls.ReasonRang:
			out.Rings++
		case calls.ReasonAccepted:
			out.Accepted++
		case calls.ReasonDeclined:
			out.Declined++
		case calls.ReasonHangup:
			out.Hangups++
		case calls.ReasonTeardown:
			out.Teardowns++
		case calls.ReasonPaywallDismissed:
			out.PaywallsDismissed++
		case calls.ReasonPurchased:
			out.Purchases++
			out.CoinsPurchased += e.Coins
		case calls.ReasonPaymentFailed:
			out.PaymentFailures++
		case calls.ReasonPaymentCancelled:
			out.PaymentCancels++
		}
	}
	out.Sessions = len(sessions)

	if out.Rings > 0 {
		out.AnswerRate = float64(out.Accepted) / float64(out.Rings)
	}
	if out.PaywallsShown > 0 {
		out.ConversionRate = float64(out.Purchases) / float64(out.PaywallsShown)
	}
	return out, nil
}

func (s *Service) Revenue(ctx context.Context, r TimeRange) (RevenueSummary, error) {
	if !validRange(r) {
		return RevenueSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return RevenueSummary{}, errors.New("reporting: repository not configured")
	}

	t, err := s.repo.LedgerTotals(ctx, r.From, r.To)
	if err != nil {
		return RevenueSummary{}, err
	}
	out := RevenueSummary{
		Range:        r,
		Purchases:    t.Purchases,
		Revenue:      t.Revenue,
		CoinsSold:    t.CoinsSold,
		CoinsGranted: t.CoinsGranted,
		PayingUsers:  t.PayingUsers,
	}
	if t.Purchases > 0 {
		out.AverageOrderValue = t.Revenue / t.Purchases
	}
	return out, nil
}
