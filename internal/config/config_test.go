package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:     AppConfig{Env: "local", Port: 8080},
		DB:      DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "companion"},
		Redis:   RedisConfig{Host: "localhost", Port: 6379},
		Auth:    AuthConfig{JWTSecret: "secret"},
		Payment: PaymentConfig{MerchantKey: "key", MerchantSalt: "salt", SuccessURL: "https://s", FailureURL: "https://f"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "PAYMENT_MERCHANT_SALT is required") {
		t.Fatalf("expected merchant salt error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Call.RingDelayMin != 10*time.Second || c.Call.RingDelayMax != 20*time.Second {
		t.Fatalf("unexpected ring delay defaults: %v..%v", c.Call.RingDelayMin, c.Call.RingDelayMax)
	}
	if c.Call.PaywallAfter != 10*time.Second {
		t.Fatalf("expected 10s paywall default, got %v", c.Call.PaywallAfter)
	}
	if c.Call.SeatIdleTimeout != 30*time.Minute {
		t.Fatalf("expected 30m seat idle default, got %v", c.Call.SeatIdleTimeout)
	}
	if c.Payment.Environment != "1" {
		t.Fatalf("expected test gateway environment outside production, got %q", c.Payment.Environment)
	}
	if c.Payment.WalletURN != "100000" || c.Payment.ResponseTimeout != 10*time.Second {
		t.Fatalf("unexpected payment defaults: %+v", c.Payment)
	}
}

func TestValidate_RejectsInvertedRingDelay(t *testing.T) {
	c := validLocal()
	c.Call.RingDelayMin = 20 * time.Second
	c.Call.RingDelayMax = 10 * time.Second
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for inverted ring delay")
	}
}

func TestValidate_RejectsUnknownGatewayEnvironment(t *testing.T) {
	c := validLocal()
	c.Payment.Environment = "2"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for environment 2")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	env := map[string]string{
		"APP_ENV":               "dev",
		"APP_PORT":              "9090",
		"DB_HOST":               "db",
		"DB_PORT":               "5432",
		"DB_USER":               "u",
		"DB_NAME":               "n",
		"REDIS_HOST":            "r",
		"REDIS_PORT":            "6379",
		"JWT_SECRET":            "s",
		"CALL_PAYWALL_AFTER":    "30s",
		"PAYMENT_MERCHANT_KEY":  "k",
		"PAYMENT_MERCHANT_SALT": "salt",
		"PAYMENT_SUCCESS_URL":   "https://ok",
		"PAYMENT_FAILURE_URL":   "https://fail",
		"AUTH_ADMIN_USER_IDS":   " a1, ,a2 ",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.Call.PaywallAfter != 30*time.Second {
		t.Fatalf("expected 30s paywall, got %v", c.Call.PaywallAfter)
	}
	if len(c.Auth.AdminUserIDs) != 2 || c.Auth.AdminUserIDs[1] != "a2" {
		t.Fatalf("unexpected admin ids %q", c.Auth.AdminUserIDs)
	}
	if c.RedisAddr() != "r:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT must be an integer") {
		t.Fatalf("expected port parse error, got %v", err)
	}
}
