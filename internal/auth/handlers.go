package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"ecomkit/internal/shop"
	"ecomkit/pkg/config"
	"ecomkit/pkg/logx"
	"ecomkit/pkg/shopify"
)

const stateCookie = "oauth_state"

// TokenStore persists offline tokens.
type TokenStore interface {
	Upsert(ctx context.Context, domain, accessToken, scope string) (*shop.Shop, error)
}

type WebhookCreator interface {
	CreateWebhook(ctx context.Context, topic string, callbackURL string) error
}

// installWebhooks are registered through the Admin API after install. The GDPR topics
// are declared in shopify.app.toml and cannot be subscribed this way.
var installWebhooks = []string{"app/uninstalled"}

type Handlers struct {
	Cfg       config.Config
	Shops     TokenStore
	Exchanger shopify.OAuthExchanger
	// Webhooks builds the Admin client used to subscribe webhooks; nil uses shopify.Client.
	Webhooks func(shopDomain, accessToken string) WebhookCreator
}

func (h Handlers) Install(w http.ResponseWriter, r *http.Request) {
	shopDomain := shopify.NormalizeShopDomain(r.URL.Query().Get("shop"))
	if !shopify.ValidShopDomain(shopDomain) {
		http.Error(w, "missing or invalid shop", http.StatusBadRequest)
		return
	}

	state := randomHex(16)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.IsProd(),
		MaxAge:   600,
	})

	u := url.URL{
		Scheme: "https",
		Host:   shopDomain,
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", h.Cfg.Shopify.APIKey)
	q.Set("scope", h.Cfg.Shopify.Scopes)
	q.Set("redirect_uri", h.Cfg.Shopify.RedirectURL)
	q.Set("state", state)
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (h Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logx.FromContext(ctx)

	qs := r.URL.Query()
	shopDomain := shopify.NormalizeShopDomain(qs.Get("shop"))
	code := strings.TrimSpace(qs.Get("code"))

	if !shopify.ValidShopDomain(shopDomain) || code == "" {
		http.Error(w, "missing shop or code", http.StatusBadRequest)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != qs.Get("state") {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	if !VerifyOAuthHMAC(qs, h.Cfg.Shopify.APISecret) {
		http.Error(w, "invalid hmac", http.StatusUnauthorized)
		return
	}

	ex := h.Exchanger
	ex.APIKey = h.Cfg.Shopify.APIKey
	ex.APISecret = h.Cfg.Shopify.APISecret

	tok, err := ex.ExchangeCodeForToken(ctx, shopDomain, code)
	if err != nil {
		log.Error("oauth token exchange failed", zap.String("shop", shopDomain), zap.Error(err))
		http.Error(w, "token exchange failed", http.StatusBadGateway)
		return
	}

	if _, err := h.Shops.Upsert(ctx, shopDomain, tok.AccessToken, tok.Scope); err != nil {
		log.Error("save shop failed", zap.String("shop", shopDomain), zap.Error(err))
		http.Error(w, "save shop failed", http.StatusInternalServerError)
		return
	}
	log.Info("shop installed", zap.String("shop", shopDomain), zap.String("scope", tok.Scope))

	h.registerWebhooks(ctx, shopDomain, tok.AccessToken)

	http.Redirect(w, r, "https://"+shopDomain+"/admin/apps/"+url.PathEscape(h.Cfg.Shopify.APIKey), http.StatusFound)
}

// registerWebhooks needs a public base URL; without one (local dev) it is skipped.
func (h Handlers) registerWebhooks(ctx context.Context, shopDomain, accessToken string) {
	base := strings.TrimRight(strings.TrimSpace(h.Cfg.PublicBaseURL), "/")
	if base == "" {
		return
	}
	var wc WebhookCreator
	if h.Webhooks != nil {
		wc = h.Webhooks(shopDomain, accessToken)
	} else {
		wc = shopify.Client{ShopDomain: shopDomain, AccessToken: accessToken, APIVersion: h.Cfg.Shopify.APIVersion}
	}

	for _, topic := range installWebhooks {
		callback := base + "/v1/webhooks/shopify/" + strings.ReplaceAll(topic, "/", "_")
		if err := wc.CreateWebhook(ctx, topic, callback); err != nil {
			logx.FromContext(ctx).Warn("webhook register failed",
				zap.String("shop", shopDomain), zap.String("topic", topic), zap.Error(err))
		}
	}
}

func randomHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
