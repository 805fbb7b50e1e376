package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether s looks like a permanent *.myshopify.com domain.
func ValidShopDomain(s string) bool {
	return shopDomainRe.MatchString(s)
}

type OAuthExchanger struct {
	HTTPClient *http.Client
	APIKey     string
	APISecret  string

	// BaseURL replaces https://{shop} when set (tests).
	BaseURL string
}

// OfflineToken is the result of an authorization code exchange.
type OfflineToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

func (o OAuthExchanger) ExchangeCodeForToken(ctx context.Context, shopDomain, code string) (OfflineToken, error) {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if !ValidShopDomain(shopDomain) {
		return OfflineToken{}, fmt.Errorf("invalid shop domain %q", shopDomain)
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     o.APIKey,
		"client_secret": o.APISecret,
		"code":          code,
	})
	if err != nil {
		return OfflineToken{}, err
	}

	base := "https://" + shopDomain
	if o.BaseURL != "" {
		base = o.BaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return OfflineToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return OfflineToken{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OfflineToken{}, fmt.Errorf("shopify token exchange failed: status=%d", resp.StatusCode)
	}

	var tok OfflineToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return OfflineToken{}, err
	}
	if tok.AccessToken == "" {
		return OfflineToken{}, fmt.Errorf("shopify token exchange returned empty access_token")
	}
	return tok, nil
}
