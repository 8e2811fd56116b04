package main

import (
	"context"
	"net/http"

	"companion-platform/internal/httpapi"
	"companion-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerPublicRoutes wires unauthenticated routes: health checks, metrics, token
// issuance and gateway callbacks.
func registerPublicRoutes(r *gin.Engine, h httpapi.Handlers, ready func(context.Context) error) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := r.Group("/auth")
	{
		if h.DevLogin {
			a.POST("/dev-login", h.DevLoginHandler)
		}
		a.POST("/refresh", h.Refresh)
	}

	// The gateway posts to the configured success and failure URLs. Both are
	// verified by reverse hash inside the handler.
	wh := r.Group("/webhooks/payments")
	{
		wh.POST("/success", h.PaymentWebhook)
		wh.POST("/failure", h.PaymentWebhook)
	}
}

// registerProtectedRoutes wires routes behind the access token. Keep this
// file free of business logic.
func registerProtectedRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	v1 := r.Group("/v1")
	v1.Use(authMW)

	v1.GET("/me", h.Me)

	screen := v1.Group("/screen")
	{
		screen.POST("/focus", h.Focus)
		screen.POST("/blur", h.Blur)
		screen.POST("/resume", h.Resume)
	}

	call := v1.Group("/calls/current")
	{
		call.GET("", h.CurrentCall)
		call.POST("/accept", h.Accept)
		call.POST("/decline", h.Decline)
		call.POST("/end", h.EndCall)
		call.POST("/teardown", h.Teardown)
		call.POST("/toggle/:control", h.Toggle)
	}

	pw := v1.Group("/paywall")
	{
		pw.GET("/packages", h.Packages)
		pw.POST("/select", h.SelectPackage)
		pw.POST("/dismiss", h.DismissPaywall)
	}

	pay := v1.Group("/payments")
	{
		pay.POST("/hash", h.PaymentHash)
		pay.POST("/:txnid/result", h.PaymentResult)
	}

	device := v1.Group("/device")
	{
		device.GET("/commands", h.Commands)
		device.POST("/permissions/camera", h.ReportCameraPermission)
	}

	v1.GET("/wallet/balance", h.GetWalletBalance)
	v1.GET("/onboarding", h.GetOnboarding)
	v1.PUT("/onboarding", h.CompleteOnboarding)

	admin := v1.Group("/admin")
	admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
	{
		admin.POST("/wallets/:user_id/credit", h.AdminManualCredit)
	}

	reports := v1.Group("/admin/reports")
	reports.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleFinance))
	{
		reports.GET("/funnel", h.FunnelReport)
		reports.GET("/revenue", h.RevenueReport)
	}
}
