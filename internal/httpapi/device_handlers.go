package httpapi

import (
	"net/http"

	"companion-platform/internal/capability"
	"companion-platform/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Commands drains the device's outbox.
func (h Handlers) Commands(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": s.Outbox.Drain(), "dropped": s.Outbox.Dropped()})
}

type permissionReport struct {
	Status capability.Status `json:"status"`
}

// ReportCameraPermission records the OS permission status the device saw,
// answering any pending request.
func (h Handlers) ReportCameraPermission(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	var req permissionReport
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		abort(c, http.StatusBadRequest, "invalid status")
		return
	}
	s.Permissions.Report(req.Status)
	metrics.RecordPermissionReport(string(req.Status))
	c.Status(http.StatusNoContent)
}
