package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_RequestIDAndSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/x/:id", func(c *gin.Context) {
		if From(c.Request.Context()) != FromGin(c) {
			t.Errorf("request context logger differs from gin logger")
		}
		c.Set("user_id", "u1")
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x/42", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-Id") != "rid-1" {
		t.Fatalf("expected request id echoed")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["request_id"] != "rid-1" || line["path"] != "/x/:id" || line["user_id"] != "u1" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["status"].(float64) != http.StatusTeapot {
		t.Fatalf("unexpected status %v", line["status"])
	}
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(NewWithWriter("local", &bytes.Buffer{})))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMiddleware_LevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter("production", &buf)))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/v1/payments/:txnid/result", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Fatalf("health check should log at debug only, got %q", buf.String())
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/payments/t-1/result", nil))
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["level"] != "WARN" || line["transaction_id"] != "t-1" {
		t.Fatalf("unexpected log line %v", line)
	}
}
