package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion-platform/internal/audit"
	"companion-platform/internal/calls"
	"companion-platform/internal/payment"
	"companion-platform/internal/wallet"
)

func transition(user, session string, from, to calls.Status, reason string, at time.Time) audit.Event {
	return audit.Event{
		UserID:     user,
		Type:       audit.EventTypeCallTransition,
		SessionID:  session,
		FromStatus: string(from),
		ToStatus:   string(to),
		Reason:     reason,
		CreatedAt:  at,
	}
}

func TestReporting_FunnelAggregates(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Events = []audit.Event{
		transition("u1", "s1", calls.StatusIdle, calls.StatusRinging, calls.ReasonRang, now),
		transition("u1", "s1", calls.StatusRinging, calls.StatusActive, calls.ReasonAccepted, now),
		transition("u1", "s1", calls.StatusActive, calls.StatusPaywallPending, calls.ReasonPaywallDue, now),
		transition("u1", "s1", calls.StatusPaywallPending, calls.StatusActive, calls.ReasonPurchased, now),
		transition("u1", "s1", calls.StatusActive, calls.StatusPaywallPending, calls.ReasonPaywallDue, now),
		transition("u1", "s1", calls.StatusPaywallPending, calls.StatusEnded, calls.ReasonPaywallDismissed, now),
		transition("u2", "s2", calls.StatusIdle, calls.StatusRinging, calls.ReasonRang, now),
		transition("u2", "s2", calls.StatusRinging, calls.StatusEnded, calls.ReasonDeclined, now),
		{UserID: "u1", Type: audit.EventTypePaymentResult, Reason: "success", CreatedAt: now},
	}
	repo.Events[3].Coins = 650
	svc := NewService(repo)

	f, err := svc.Funnel(context.Background(), FunnelRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Sessions != 2 || f.Rings != 2 || f.Accepted != 1 || f.Declined != 1 {
		t.Fatalf("unexpected call counts: %+v", f)
	}
	if f.PaywallsShown != 2 || f.Purchases != 1 || f.PaywallsDismissed != 1 || f.CoinsPurchased != 650 {
		t.Fatalf("unexpected paywall counts: %+v", f)
	}
	if f.AnswerRate != 0.5 || f.ConversionRate != 0.5 {
		t.Fatalf("unexpected rates: %+v", f)
	}
}

func TestReporting_FunnelPerUser(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Events = []audit.Event{
		transition("u1", "s1", calls.StatusIdle, calls.StatusRinging, calls.ReasonRang, now),
		transition("u2", "s2", calls.StatusIdle, calls.StatusRinging, calls.ReasonRang, now),
		transition("u2", "s3", calls.StatusIdle, calls.StatusRinging, calls.ReasonRang, now.Add(2*time.Hour)),
	}
	svc := NewService(repo)

	f, err := svc.Funnel(context.Background(), FunnelRequest{UserID: "u2", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Rings != 1 || f.AnswerRate != 0 {
		t.Fatalf("unexpected funnel: %+v", f)
	}
}

func TestReporting_RejectsBadRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Now()
	if _, err := svc.Funnel(context.Background(), FunnelRequest{Range: TimeRange{From: now, To: now}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.Revenue(context.Background(), TimeRange{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestReporting_RevenueFromLiveSources(t *testing.T) {
	ctx := context.Background()
	ws := wallet.NewService(wallet.NewMemoryStore())
	if err := ws.Grant(ctx, "u1", payment.Entitlement{TransactionID: "t1", PackageID: "pack3", Coins: 650, Amount: 500}); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := ws.Grant(ctx, "u2", payment.Entitlement{TransactionID: "t2", PackageID: "pack1", Coins: 120, Amount: 100}); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	svc := NewService(Sources{Audit: audit.NewService(audit.NewMemoryRepo()), Wallet: ws})
	now := time.Now()
	out, err := svc.Revenue(ctx, TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Purchases != 2 || out.Revenue != 600 || out.CoinsSold != 770 || out.PayingUsers != 2 {
		t.Fatalf("unexpected summary: %+v", out)
	}
	if out.AverageOrderValue != 300 {
		t.Fatalf("expected AOV 300, got %d", out.AverageOrderValue)
	}
}
