package shopify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type SessionTokenClaims struct {
	jwt.RegisteredClaims

	// Shopify custom claims.
	Dest string `json:"dest,omitempty"` // https://{shop}
	SID  string `json:"sid,omitempty"`
}

type VerifiedSession struct {
	ShopDomain string
	UserID     string
	SessionID  string
	ExpiresAt  time.Time
}

// VerifySessionToken verifies an embedded app session token (JWT, HS256) signed with the app secret.
// The shop comes from `dest`; when `iss` is present it must point at the same shop's admin.
func VerifySessionToken(tokenString string, apiKey string, apiSecret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if apiSecret == "" {
		return nil, fmt.Errorf("missing api secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}

	claims := &SessionTokenClaims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	shopDomain := hostOf(claims.Dest)
	if shopDomain == "" {
		return nil, fmt.Errorf("missing shop in token")
	}
	if claims.Issuer != "" && hostOf(claims.Issuer) != shopDomain {
		return nil, fmt.Errorf("issuer %q does not match dest %q", claims.Issuer, claims.Dest)
	}

	return &VerifiedSession{
		ShopDomain: shopDomain,
		UserID:     claims.Subject,
		SessionID:  claims.SID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
