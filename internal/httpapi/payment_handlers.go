package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"companion-platform/internal/metrics"
	"companion-platform/internal/payment"
	"companion-platform/internal/wallet"
	"companion-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHash signs a hash challenge raised by the checkout SDK.
func (h Handlers) PaymentHash(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var ch payment.HashChallenge
	if err := c.ShouldBindJSON(&ch); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.Adapter.RespondHash(ch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type paymentResultRequest struct {
	Outcome payment.Outcome `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
	// Response is the raw gateway response the SDK returned. Required for
	// success so the reverse hash can be checked.
	Response map[string]string `json:"response,omitempty"`
}

// PaymentResult accepts the outcome the device's SDK callback reported.
func (h Handlers) PaymentResult(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	txnID := c.Param("txnid")
	p, found := h.Broker.Lookup(txnID)
	if !found || p.Order.UserID != uid {
		writeError(c, payment.ErrUnknownTransaction)
		return
	}

	var req paymentResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Outcome.Valid() {
		writeError(c, payment.ErrInvalidOutcome)
		return
	}

	result := payment.Result{Outcome: req.Outcome, Reason: req.Reason}
	if req.Outcome == payment.OutcomeSuccess {
		v := url.Values{}
		for k, val := range req.Response {
			v.Set(k, val)
		}
		cb := payment.CallbackFromValues(v)
		if cb.TransactionID != txnID || !cb.Verify(h.PaymentSalt) {
			writeError(c, payment.ErrHashMismatch)
			return
		}
		result = cb.ToResult(p.Order)
	}

	if err := h.Broker.Resolve(txnID, result); err != nil {
		writeError(c, err)
		return
	}
	if result.Outcome == payment.OutcomeSuccess {
		h.grant(c, txnID, p.Order)
	}
	h.recordPayment(c, uid, txnID, result.Outcome, "device")
	c.JSON(http.StatusAccepted, gin.H{"transaction_id": txnID, "outcome": result.Outcome})
}

// PaymentWebhook handles the gateway's success/failure form posts.
//
// A verified success is always credited, even when the transaction is no
// longer pending (the call was torn down or the process restarted). The
// ledger's idempotency key makes repeated credits safe.
func (h Handlers) PaymentWebhook(c *gin.Context) {
	cb, err := payment.ParseGatewayCallback(c.Request)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid form")
		return
	}
	if cb.TransactionID == "" || !cb.Verify(h.PaymentSalt) {
		logger.FromGin(c).Warn("payment webhook rejected", "transaction_id", cb.TransactionID)
		writeError(c, payment.ErrHashMismatch)
		return
	}

	order, orderErr := cb.Order()
	if p, ok := h.Broker.Lookup(cb.TransactionID); ok {
		order, orderErr = p.Order, nil
	}
	if orderErr != nil {
		writeError(c, orderErr)
		return
	}

	result := cb.ToResult(order)
	err = h.Broker.Resolve(cb.TransactionID, result)
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrAlreadyResolved), errors.Is(err, payment.ErrUnknownTransaction):
		logger.FromGin(c).Info("late payment webhook", "transaction_id", cb.TransactionID, "outcome", result.Outcome)
	default:
		writeError(c, err)
		return
	}

	if result.Outcome == payment.OutcomeSuccess {
		h.grant(c, cb.TransactionID, order)
	}
	h.recordPayment(c, order.UserID, cb.TransactionID, result.Outcome, "webhook")
	c.JSON(http.StatusOK, gin.H{"transaction_id": cb.TransactionID, "outcome": result.Outcome})
}

func (h Handlers) grant(c *gin.Context, txnID string, order payment.Order) {
	if h.Wallet == nil {
		return
	}
	err := h.Wallet.Grant(c.Request.Context(), order.UserID, payment.Entitlement{
		TransactionID: txnID,
		PackageID:     order.PackageID,
		Coins:         order.Coins,
		Amount:        order.Amount,
	})
	if err != nil && !errors.Is(err, wallet.ErrWalletDisabled) {
		logger.FromGin(c).Error("wallet grant failed", "transaction_id", txnID, "err", err)
	}
}

func (h Handlers) recordPayment(c *gin.Context, userID, txnID string, outcome payment.Outcome, source string) {
	metrics.RecordPaymentResult(string(outcome), source)
	if h.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	if err := h.Audit.LogPayment(ctx, userID, txnID, string(outcome), source); err != nil {
		logger.FromGin(c).Warn("audit payment failed", "transaction_id", txnID, "err", err)
	}
}
