package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"companion-platform/internal/calls"
	"companion-platform/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestRecordTransition_LiveSessionsGauge(t *testing.T) {
	before := metrics.GetLiveSessions()

	metrics.RecordTransition(calls.Transition{From: calls.StatusIdle, To: calls.StatusRinging, Reason: calls.ReasonRang})
	metrics.RecordTransition(calls.Transition{From: calls.StatusRinging, To: calls.StatusActive, Reason: calls.ReasonAccepted})
	if got := metrics.GetLiveSessions(); got != before+1 {
		t.Fatalf("expected %v live sessions, got %v", before+1, got)
	}

	metrics.RecordTransition(calls.Transition{From: calls.StatusActive, To: calls.StatusEnded, Reason: calls.ReasonHangup})
	if got := metrics.GetLiveSessions(); got != before {
		t.Fatalf("expected %v live sessions, got %v", before, got)
	}
}

func TestRecordTransition_PaywallOutcomes(t *testing.T) {
	tests := []struct {
		reason  string
		to      calls.Status
		outcome string
	}{
		{calls.ReasonPurchased, calls.StatusActive, "purchased"},
		{calls.ReasonPaywallDismissed, calls.StatusEnded, "dismissed"},
		{calls.ReasonPaymentFailed, calls.StatusEnded, "failed"},
		{calls.ReasonPaymentCancelled, calls.StatusEnded, "cancelled"},
		{calls.ReasonTeardown, calls.StatusEnded, "abandoned"},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			before := metrics.GetPaywallOutcome(tt.outcome)
			metrics.RecordTransition(calls.Transition{From: calls.StatusPaywallPending, To: tt.to, Reason: tt.reason})
			if got := metrics.GetPaywallOutcome(tt.outcome); got != before+1 {
				t.Fatalf("expected %v, got %v", before+1, got)
			}
		})
	}
}

func TestObserverExposedViaPromhttp(t *testing.T) {
	metrics.Observer().OnTransition(calls.Transition{From: calls.StatusActive, To: calls.StatusPaywallPending, Reason: calls.ReasonPaywallDue})
	metrics.RecordPaymentResult("success", "webhook")
	metrics.RecordPermissionReport("granted")

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	promhttp.Handler().ServeHTTP(recorder, req)
	body := recorder.Body.String()

	for _, want := range []string{
		`companion_call_transitions_total{reason="paywall_due",to="paywall_pending"}`,
		`companion_payment_results_total{outcome="success",source="webhook"}`,
		`companion_camera_permission_reports_total{status="granted"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
