// Package metrics exposes Prometheus counters for the call and monetization
// flow. Labels stay low-cardinality: no user, session or transaction ids.
package metrics

import (
	"companion-platform/internal/calls"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// TransitionsTotal counts session status changes.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_call_transitions_total",
		Help: "Total number of call session transitions, by target status and reason.",
	}, []string{"to", "reason"})

	// PaywallOutcomesTotal counts how each paywall was resolved.
	PaywallOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_paywall_outcomes_total",
		Help: "Total number of paywall resolutions, by outcome.",
	}, []string{"outcome"})

	// PaymentResultsTotal counts gateway results by outcome and reporting source.
	PaymentResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_payment_results_total",
		Help: "Total number of payment results, by outcome and source (device/webhook).",
	}, []string{"outcome", "source"})

	// PermissionReportsTotal counts camera permission answers from devices.
	PermissionReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_camera_permission_reports_total",
		Help: "Total number of camera permission reports, by status.",
	}, []string{"status"})

	// LiveSessions tracks sessions that are ringing, active or behind the paywall.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "companion_live_sessions",
		Help: "Current number of live call sessions.",
	})
)

// RecordTransition updates counters for one session transition.
func RecordTransition(t calls.Transition) {
	TransitionsTotal.WithLabelValues(string(t.To), t.Reason).Inc()

	switch {
	case !t.From.Live() && t.To.Live():
		LiveSessions.Inc()
	case t.From.Live() && !t.To.Live():
		LiveSessions.Dec()
	}

	if t.From != calls.StatusPaywallPending {
		return
	}
	switch t.Reason {
	case calls.ReasonPurchased:
		PaywallOutcomesTotal.WithLabelValues("purchased").Inc()
	case calls.ReasonPaywallDismissed:
		PaywallOutcomesTotal.WithLabelValues("dismissed").Inc()
	case calls.ReasonPaymentFailed:
		PaywallOutcomesTotal.WithLabelValues("failed").Inc()
	case calls.ReasonPaymentCancelled:
		PaywallOutcomesTotal.WithLabelValues("cancelled").Inc()
	default:
		PaywallOutcomesTotal.WithLabelValues("abandoned").Inc()
	}
}

// Observer adapts RecordTransition for machines.
func Observer() calls.Observer { return calls.ObserverFunc(RecordTransition) }

func RecordPaymentResult(outcome, source string) {
	PaymentResultsTotal.WithLabelValues(outcome, source).Inc()
}

func RecordPermissionReport(status string) {
	PermissionReportsTotal.WithLabelValues(status).Inc()
}

// GetLiveSessions returns the current value of the gauge (for testing).
func GetLiveSessions() float64 {
	var m dto.Metric
	if err := LiveSessions.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// GetPaywallOutcome returns the counter for one outcome (for testing).
func GetPaywallOutcome(outcome string) float64 {
	return counterValue(PaywallOutcomesTotal.WithLabelValues(outcome))
}
