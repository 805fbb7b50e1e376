package shopify

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signSession(t *testing.T, claims SessionTokenClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerifySessionToken_AudienceAndDest(t *testing.T) {
	apiKey := "test_api_key"
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	tok := signSession(t, SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://my-shop.myshopify.com/admin",
			Subject:   "42",
			Audience:  []string{apiKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
		SID:  "sess-1",
	}, secret)

	got, err := VerifySessionToken(tok, apiKey, secret, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ShopDomain != "my-shop.myshopify.com" {
		t.Fatalf("shop domain mismatch: %q", got.ShopDomain)
	}
	if got.UserID != "42" || got.SessionID != "sess-1" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestVerifySessionToken_RejectsWrongAudience(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := signSession(t, SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  []string{"other_app"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
	}, "s")

	if _, err := VerifySessionToken(tok, "test_api_key", "s", now); err == nil {
		t.Fatalf("expected audience error")
	}
}

func TestVerifySessionToken_RejectsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := signSession(t, SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
	}, "s")

	if _, err := VerifySessionToken(tok, "", "s", now); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifySessionToken_RejectsIssuerMismatch(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := signSession(t, SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://evil.myshopify.com/admin",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
	}, "s")

	if _, err := VerifySessionToken(tok, "", "s", now); err == nil {
		t.Fatalf("expected issuer mismatch error")
	}
}
