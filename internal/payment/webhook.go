package payment

import (
	"crypto/subtle"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GatewayCallback captures the subset of the gateway's success/failure form
// post we care about. The gateway posts application/x-www-form-urlencoded.
type GatewayCallback struct {
	Key              string
	TransactionID    string
	GatewayPaymentID string
	Status           string
	UnmappedStatus   string
	Amount           string
	ProductInfo      string
	FirstName        string
	Email            string
	UDF1             string
	UDF2             string
	UDF3             string
	UDF4             string
	UDF5             string
	Hash             string
	ErrorMessage     string
}

func ParseGatewayCallback(r *http.Request) (GatewayCallback, error) {
	if err := r.ParseForm(); err != nil {
		return GatewayCallback{}, err
	}
	return CallbackFromValues(r.PostForm), nil
}

// CallbackFromValues reads the gateway fields from a decoded form or from the
// response map the device SDK hands back.
func CallbackFromValues(v url.Values) GatewayCallback {
	return GatewayCallback{
		Key:              v.Get("key"),
		TransactionID:    strings.TrimSpace(v.Get("txnid")),
		GatewayPaymentID: v.Get("mihpayid"),
		Status:           strings.TrimSpace(v.Get("status")),
		UnmappedStatus:   v.Get("unmappedstatus"),
		Amount:           v.Get("amount"),
		ProductInfo:      v.Get("productinfo"),
		FirstName:        v.Get("firstname"),
		Email:            v.Get("email"),
		UDF1:             v.Get("udf1"),
		UDF2:             v.Get("udf2"),
		UDF3:             v.Get("udf3"),
		UDF4:             v.Get("udf4"),
		UDF5:             v.Get("udf5"),
		Hash:             strings.ToLower(strings.TrimSpace(v.Get("hash"))),
		ErrorMessage:     v.Get("error_Message"),
	}
}

// ReverseHash is the gateway's response hash:
// sha512(salt|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key)
func (cb GatewayCallback) ReverseHash(salt string) string {
	parts := []string{
		salt, cb.Status, "", "", "", "", "",
		cb.UDF5, cb.UDF4, cb.UDF3, cb.UDF2, cb.UDF1,
		cb.Email, cb.FirstName, cb.ProductInfo, cb.Amount, cb.TransactionID, cb.Key,
	}
	return Hash(strings.Join(parts, "|"))
}

func (cb GatewayCallback) Verify(salt string) bool {
	want := cb.ReverseHash(salt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(cb.Hash)) == 1
}

// ToResult maps the callback onto a Result for the order it pays for.
// A success whose amount disagrees with the order is treated as a failure.
func (cb GatewayCallback) ToResult(order Order) Result {
	switch {
	case strings.EqualFold(cb.Status, "success"):
		amt, err := strconv.ParseFloat(cb.Amount, 64)
		if err != nil || amt != float64(order.Amount) {
			return Result{Outcome: OutcomeFailure, Reason: "amount_mismatch"}
		}
		return Result{Outcome: OutcomeSuccess}
	case strings.EqualFold(cb.UnmappedStatus, "userCancelled"):
		return Result{Outcome: OutcomeCancelled, Reason: "user_cancelled"}
	default:
		reason := cb.ErrorMessage
		if reason == "" {
			reason = cb.Status
		}
		return Result{Outcome: OutcomeFailure, Reason: reason}
	}
}

// Order rebuilds the order from the signed custom fields. It is used when the
// broker no longer holds the transaction, e.g. a success that arrives after
// the call was torn down.
func (cb GatewayCallback) Order() (Order, error) {
	coins, err := strconv.ParseInt(cb.UDF4, 10, 64)
	if err != nil || coins <= 0 {
		return Order{}, fmt.Errorf("%w: coins %q", ErrInvalidOrder, cb.UDF4)
	}
	amt, err := strconv.ParseFloat(cb.Amount, 64)
	if err != nil || amt <= 0 || amt != math.Trunc(amt) {
		return Order{}, fmt.Errorf("%w: amount %q", ErrInvalidOrder, cb.Amount)
	}
	if cb.UDF1 == "" || cb.UDF2 == "" || cb.UDF3 == "" {
		return Order{}, ErrInvalidOrder
	}
	return Order{
		Intent:    Intent{PackageID: cb.UDF2, Amount: int64(amt), Coins: coins},
		UserID:    cb.UDF3,
		SessionID: cb.UDF1,
		Customer:  Customer{FirstName: cb.FirstName, Email: cb.Email},
	}, nil
}
