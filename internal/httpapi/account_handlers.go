package httpapi

import (
	"net/http"
	"time"

	"companion-platform/internal/auth"
	"companion-platform/internal/reporting"
	"companion-platform/internal/wallet"
	"companion-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// --- Wallet ---

func (h Handlers) GetWalletBalance(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if h.Wallet == nil {
		abort(c, http.StatusInternalServerError, "wallet not configured")
		return
	}
	bal, err := h.Wallet.GetBalance(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

// AdminManualCredit performs an admin-only wallet credit.
// RBAC: admin or super_admin.
func (h Handlers) AdminManualCredit(c *gin.Context) {
	if h.Wallet == nil {
		abort(c, http.StatusInternalServerError, "wallet not configured")
		return
	}
	adminUserID, _ := auth.UserID(c.Request.Context())
	adminRole, _ := auth.Role(c.Request.Context())

	var req wallet.AdminCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	userID := c.Param("user_id")

	action, _, bal, err := h.Wallet.AdminManualCredit(c.Request.Context(), userID, adminUserID, adminRole, req)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogAdminAction(c.Request.Context(), userID, adminUserID, adminRole, c.ClientIP(), req.Reason, req.Coins, req.Metadata); err != nil {
			logger.FromGin(c).Warn("audit admin action failed", "user_id", userID, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "balance": bal})
}

// --- Onboarding ---

func (h Handlers) GetOnboarding(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	done, err := h.Onboarding.Completed(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": done})
}

func (h Handlers) CompleteOnboarding(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Onboarding.MarkCompleted(c.Request.Context(), uid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

// --- Reports ---

func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		abort(c, http.StatusBadRequest, "from and to must be RFC3339")
		return reporting.TimeRange{}, false
	}
	return reporting.TimeRange{From: from, To: to}, true
}

func (h Handlers) FunnelReport(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.Funnel(c.Request.Context(), reporting.FunnelRequest{Range: r, UserID: c.Query("user_id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) RevenueReport(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.Revenue(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
