package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"companion-platform/internal/audit"
	"companion-platform/internal/auth"
	"companion-platform/internal/calls"
	"companion-platform/internal/capability"
	"companion-platform/internal/onboarding"
	"companion-platform/internal/payment"
	"companion-platform/internal/paywall"
	"companion-platform/internal/rbac"
	"companion-platform/internal/reporting"
	"companion-platform/internal/wallet"
	"companion-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Roles    rbac.Resolver
	DevLogin bool

	Calls   *calls.Manager
	Catalog paywall.Catalog

	Broker      *payment.Broker
	Adapter     *payment.Adapter
	PaymentSalt string

	Wallet     *wallet.Service
	Audit      *audit.Service
	Reports    *reporting.Service
	Onboarding onboarding.Store
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, calls.ErrInvalidTransition),
		errors.Is(err, calls.ErrPaymentInFlight),
		errors.Is(err, paywall.ErrNotVisible),
		errors.Is(err, capability.ErrCaptureBusy),
		errors.Is(err, capability.ErrNoCaptureDevice),
		errors.Is(err, payment.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, paywall.ErrPackageNotFound),
		errors.Is(err, payment.ErrUnknownTransaction),
		errors.Is(err, wallet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, payment.ErrInvalidOrder),
		errors.Is(err, payment.ErrInvalidOutcome),
		errors.Is(err, payment.ErrInvalidChallenge),
		errors.Is(err, wallet.ErrInvalidArgument),
		errors.Is(err, onboarding.ErrInvalidUser),
		errors.Is(err, reporting.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, payment.ErrHashMismatch):
		status = http.StatusUnauthorized
	case errors.Is(err, capability.ErrPermissionDenied),
		errors.Is(err, wallet.ErrWalletDisabled):
		status = http.StatusForbidden
	case errors.Is(err, calls.ErrMachineClosed),
		errors.Is(err, calls.ErrManagerClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		abort(c, status, "internal error")
		return
	}
	abort(c, status, err.Error())
}

func currentUser(c *gin.Context) (string, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		abort(c, http.StatusUnauthorized, "user_id required")
		return "", false
	}
	return uid, true
}

func (h Handlers) seat(c *gin.Context) (*calls.Seat, bool) {
	uid, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	if h.Calls == nil {
		abort(c, http.StatusInternalServerError, "calls not configured")
		return nil, false
	}
	s, err := h.Calls.Seat(uid)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
}

// DevLogin issues a JWT pair for any user id. It is only routed outside
// production; real credential checks happen upstream.
func (h Handlers) DevLoginHandler(c *gin.Context) {
	if !h.DevLogin || h.Auth == nil {
		abort(c, http.StatusNotFound, "not found")
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		abort(c, http.StatusBadRequest, "user_id required")
		return
	}
	role, err := h.Roles.RoleFor(req.UserID)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, role)
	if err != nil {
		abort(c, http.StatusInternalServerError, "token issuance failed")
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil {
		abort(c, http.StatusInternalServerError, "auth not configured")
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abort(c, http.StatusBadRequest, "refresh_token required")
		return
	}
	pair, err := h.Auth.Refresh(req.RefreshToken, time.Now(), h.Roles.RoleFor)
	if err != nil {
		abort(c, http.StatusUnauthorized, "invalid token")
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
}
