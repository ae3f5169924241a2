package helpers

import (
	"testing"
	"time"
)

func TestAccessAndRefreshUseSeparateKeys(t *testing.T) {
	t.Parallel()
	m := NewJWTManager("a", "r", "i", time.Minute, time.Hour)

	access, exp, err := m.GenerateAccessToken("u1", "s1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	if time.Until(exp) > time.Minute || time.Until(exp) <= 0 {
		t.Errorf("access expiry %v not within AccessTTL", exp)
	}
	claims, err := m.ParseAccessToken(access)
	if err != nil {
		t.Fatalf("ParseAccessToken() error: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" {
		t.Errorf("claims = %+v, want u1/s1", claims)
	}
	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Error("ParseRefreshToken(access token) succeeded, want error")
	}

	refresh, _, err := m.GenerateRefreshToken("u1", "s1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error: %v", err)
	}
	if _, err := m.ParseAccessToken(refresh); err == nil {
		t.Error("ParseAccessToken(refresh token) succeeded, want error")
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	t.Parallel()
	m := NewJWTManager("a", "r", "i", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("u1", "s1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Error("ParseAccessToken(expired) succeeded, want error")
	}
}

func TestIdentityToken(t *testing.T) {
	t.Parallel()
	m := NewJWTManager("a", "r", "i", time.Minute, time.Hour)

	tok, err := m.SignIdentityToken("alice@example.com", "Alice", time.Minute)
	if err != nil {
		t.Fatalf("SignIdentityToken() error: %v", err)
	}
	claims, err := m.ParseIdentityToken(tok)
	if err != nil {
		t.Fatalf("ParseIdentityToken() error: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.Name != "Alice" {
		t.Errorf("claims = %+v", claims)
	}

	noEmail, _ := m.SignIdentityToken(" ", "Alice", time.Minute)
	if _, err := m.ParseIdentityToken(noEmail); err == nil {
		t.Error("ParseIdentityToken(no email) succeeded, want error")
	}
}
