package auth

import (
	"errors"
	"testing"
	"time"

	"companion-platform/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := newTestManager(t)

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "r")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected token_type mismatch, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	p, _ := m.IssuePair(now, "u", "user")
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestRefreshReissuesWithCurrentRole(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	p, _ := m.IssuePair(now, "u", "user")

	next, err := m.Refresh(p.RefreshToken, now.Add(time.Hour), func(userID string) (string, error) {
		return "admin", nil
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := m.Verify(next.AccessToken, TokenTypeAccess, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected refreshed role, got %q", claims.Role)
	}

	if _, err := m.Refresh(p.AccessToken, now, func(string) (string, error) { return "user", nil }); err == nil {
		t.Fatalf("access token must not refresh")
	}
}
