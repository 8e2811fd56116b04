package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"companion-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(role string, allowed ...string) int {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveAs(RoleSuperAdmin, RoleAdmin); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_UserDeniedAdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveAs(RoleUser, RoleAdmin, RoleFinance); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serveAs(RoleFinance, RoleAdmin, RoleFinance); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_RoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveAs("", RoleAdmin); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestResolver_RoleFor(t *testing.T) {
	r := NewResolver([]string{"a1"})
	if role, _ := r.RoleFor("a1"); role != RoleAdmin {
		t.Fatalf("expected admin, got %q", role)
	}
	if role, _ := r.RoleFor("u1"); role != RoleUser {
		t.Fatalf("expected user, got %q", role)
	}
	if _, err := r.RoleFor(""); err == nil {
		t.Fatalf("expected error for empty user")
	}
}
