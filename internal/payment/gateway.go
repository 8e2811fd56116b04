package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"companion-platform/internal/config"
)

// GatewayParams is the payment payload the checkout SDK expects.
// Field names are part of the gateway contract; keep them stable.
type GatewayParams struct {
	Key               string           `json:"key"`
	TransactionID     string           `json:"transactionId"`
	Amount            string           `json:"amount"`
	ProductInfo       string           `json:"productInfo"`
	FirstName         string           `json:"firstName"`
	Email             string           `json:"email"`
	Phone             string           `json:"phone"`
	IOSSuccessURL     string           `json:"ios_surl"`
	IOSFailureURL     string           `json:"ios_furl"`
	AndroidSuccessURL string           `json:"android_surl"`
	AndroidFailureURL string           `json:"android_furl"`
	Environment       string           `json:"environment"`
	UserCredential    string           `json:"userCredential,omitempty"`
	AdditionalParam   AdditionalParams `json:"additionalParam"`
}

// AdditionalParams carries the user-defined fields echoed back by the gateway.
// udf1..udf3 hold session, package and user ids so callbacks can be matched.
type AdditionalParams struct {
	UDF1      string `json:"udf1"`
	UDF2      string `json:"udf2"`
	UDF3      string `json:"udf3"`
	UDF4      string `json:"udf4"`
	UDF5      string `json:"udf5"`
	WalletURN string `json:"walletUrn,omitempty"`
}

// CheckoutConfig controls the gateway's checkout UI.
type CheckoutConfig struct {
	PrimaryColor                         string              `json:"primaryColor"`
	SecondaryColor                       string              `json:"secondaryColor"`
	MerchantName                         string              `json:"merchantName"`
	MerchantLogo                         string              `json:"merchantLogo"`
	ShowExitConfirmationOnCheckoutScreen bool                `json:"showExitConfirmationOnCheckoutScreen"`
	ShowExitConfirmationOnPaymentScreen  bool                `json:"showExitConfirmationOnPaymentScreen"`
	CartDetails                          []map[string]string `json:"cartDetails"`
	PaymentModesOrder                    []map[string]string `json:"paymentModesOrder"`
	SurePayCount                         int                 `json:"surePayCount"`
	MerchantResponseTimeout              int64               `json:"merchantResponseTimeout"`
	AutoSelectOtp                        bool                `json:"autoSelectOtp"`
	AutoApprove                          bool                `json:"autoApprove"`
	MerchantSMSPermission                bool                `json:"merchantSMSPermission"`
	ShowCbToolbar                        bool                `json:"showCbToolbar"`
}

// Checkout is what the device passes to the SDK's openCheckoutScreen.
type Checkout struct {
	PaymentParams  GatewayParams  `json:"payUPaymentParams"`
	CheckoutConfig CheckoutConfig `json:"payUCheckoutProConfig"`
}

// HashChallenge is emitted by the SDK when it needs a server-side hash.
type HashChallenge struct {
	HashName   string `json:"hashName"`
	HashString string `json:"hashString"`
}

var ErrInvalidChallenge = errors.New("payment: invalid hash challenge")

// Adapter is the only place that knows the gateway's payload shape and
// hashing rules. The merchant salt never leaves it.
type Adapter struct {
	cfg config.PaymentConfig
}

func NewAdapter(cfg config.PaymentConfig) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Checkout(txnID string, order Order) Checkout {
	params := GatewayParams{
		Key:               a.cfg.MerchantKey,
		TransactionID:     txnID,
		Amount:            strconv.FormatInt(order.Amount, 10),
		ProductInfo:       a.cfg.ProductInfo,
		FirstName:         order.Customer.FirstName,
		Email:             order.Customer.Email,
		Phone:             order.Customer.Phone,
		IOSSuccessURL:     a.cfg.SuccessURL,
		IOSFailureURL:     a.cfg.FailureURL,
		AndroidSuccessURL: a.cfg.SuccessURL,
		AndroidFailureURL: a.cfg.FailureURL,
		Environment:       a.cfg.Environment,
		AdditionalParam: AdditionalParams{
			UDF1:      order.SessionID,
			UDF2:      order.PackageID,
			UDF3:      order.UserID,
			UDF4:      strconv.FormatInt(order.Coins, 10),
			WalletURN: a.cfg.WalletURN,
		},
	}

	cc := CheckoutConfig{
		PrimaryColor:                         a.cfg.PrimaryColor,
		SecondaryColor:                       a.cfg.SecondaryColor,
		MerchantName:                         a.cfg.MerchantName,
		MerchantLogo:                         a.cfg.MerchantLogo,
		ShowExitConfirmationOnCheckoutScreen: true,
		ShowExitConfirmationOnPaymentScreen:  true,
		CartDetails: []map[string]string{
			{"Order": a.cfg.ProductInfo},
			{"Order Id": txnID},
			{"Coins": strconv.FormatInt(order.Coins, 10)},
		},
		PaymentModesOrder: []map[string]string{
			{"UPI": "TEZ"},
			{"Wallets": "PAYTM"},
			{"EMI": ""},
			{"Wallets": "PHONEPE"},
		},
		SurePayCount:            1,
		MerchantResponseTimeout: a.cfg.ResponseTimeout.Milliseconds(),
		AutoSelectOtp:           true,
		ShowCbToolbar:           true,
	}
	return Checkout{PaymentParams: params, CheckoutConfig: cc}
}

// RespondHash answers a hash challenge: {hashName: sha512(hashString + salt)}.
func (a *Adapter) RespondHash(ch HashChallenge) (map[string]string, error) {
	if strings.TrimSpace(ch.HashName) == "" || ch.HashString == "" {
		return nil, ErrInvalidChallenge
	}
	return map[string]string{ch.HashName: Hash(ch.HashString + a.cfg.MerchantSalt)}, nil
}

// Hash is a single SHA-512 pass rendered as lowercase hex.
func Hash(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
