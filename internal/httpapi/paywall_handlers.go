package httpapi

import (
	"net/http"

	"companion-platform/internal/calls"
	"companion-platform/internal/payment"

	"github.com/gin-gonic/gin"
)

func (h Handlers) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": h.Catalog.Listings()})
}

type selectPackageRequest struct {
	PackageID string           `json:"package_id"`
	Customer  payment.Customer `json:"customer"`
}

// SelectPackage starts a purchase and returns the payment screen params,
// including the gateway checkout payload.
func (h Handlers) SelectPackage(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	var req selectPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PackageID == "" {
		abort(c, http.StatusBadRequest, "package_id required")
		return
	}
	params, err := s.Machine.SelectPackage(c.Request.Context(), req.PackageID, req.Customer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, params)
}

func (h Handlers) DismissPaywall(c *gin.Context) {
	h.endWith(c, (*calls.Machine).DismissPaywall)
}
