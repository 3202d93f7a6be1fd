package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, ttl)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// signed builds a token by hand so tests can control every claim.
func signed(t *testing.T, method jwt.SigningMethod, key any, c jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims{RegisteredClaims: c}).SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return s
}

func TestNewTokenService(t *testing.T) {
	if _, err := NewTokenService("short", time.Hour); err == nil {
		t.Error("secrets under 16 characters must be rejected")
	}

	ts := newTestTokenService(t, 0)
	if ts.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want default %v", ts.TTL(), DefaultTokenTTL)
	}
}

func TestGenerate_UsesTTLAndIssuer(t *testing.T) {
	ttl := 90 * time.Minute
	ts := newTestTokenService(t, ttl)

	tok, err := ts.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &c); err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if c.Issuer != Issuer {
		t.Errorf("iss = %q, want %q", c.Issuer, Issuer)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != ttl {
		t.Errorf("exp - iat = %v, want %v", got, ttl)
	}

	sub, err := ts.Validate(tok)
	if err != nil || sub != "user-1" {
		t.Errorf("Validate() = %q, %v", sub, err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	valid := jwt.RegisteredClaims{Subject: "user-1", Issuer: Issuer, ExpiresAt: future}

	expired, err := ts.GenerateWithDuration("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	foreign := valid
	foreign.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"foreign issuer", signed(t, jwt.SigningMethodHS256, []byte(testSecret), foreign)},
		{"no expiry", signed(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{"no subject", signed(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
		{"other secret", signed(t, jwt.SigningMethodHS256, []byte("another-secret-of-16+"), valid)},
		{"HS384", signed(t, jwt.SigningMethodHS384, []byte(testSecret), valid)},
		{"alg none", signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if sub, err := ts.Validate(tc.token); err == nil {
				t.Errorf("Validate() = %q, want error", sub)
			}
		})
	}
}
