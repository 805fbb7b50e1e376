package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/internal/auth"
	"ecomkit/internal/cart"
	"ecomkit/internal/settings"
	"ecomkit/internal/shop"
	"ecomkit/pkg/logx"
	"ecomkit/pkg/shopify"
)

const offersFeature = "offers"

type ShopFinder interface {
	FindByDomain(ctx context.Context, domain string) (*shop.Shop, error)
}

// ProxyAuth admits requests forwarded by the Shopify app proxy and attaches the shop.
func ProxyAuth(secret string, shops ShopFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if !auth.VerifyProxySignature(q, secret) {
				api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid proxy signature")
				return
			}
			domain := shopify.NormalizeShopDomain(q.Get("shop"))
			s, err := shops.FindByDomain(r.Context(), domain)
			if err != nil || !s.Installed() {
				if err != nil && !errors.Is(err, shop.ErrNotFound) {
					logx.FromContext(r.Context()).Error("proxy shop lookup failed", zap.String("shop", domain), zap.Error(err))
				}
				api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shop not installed")
				return
			}
			ctx := logx.WithLogger(r.Context(), logx.FromContext(r.Context()).With(zap.String("shop", s.Domain)))
			next.ServeHTTP(w, r.WithContext(api.WithShop(ctx, s)))
		})
	}
}

type Handlers struct {
	Settings *settings.Service
	StoreFor settings.StoreFunc
}

func (h Handlers) config(r *http.Request) (cart.Config, error) {
	s := api.ShopFromContext(r.Context())
	page, err := h.Settings.Load(r.Context(), h.StoreFor(s), offersFeature)
	if err != nil {
		return cart.Config{}, err
	}
	return DrawerConfig(page.Values), nil
}

// DrawerConfigHandler returns the data attributes the theme puts on the drawer container.
func (h Handlers) DrawerConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.config(r)
	if err != nil {
		logx.FromContext(r.Context()).Warn("drawer config falls back to defaults", zap.Error(err))
		cfg = cart.DefaultConfig()
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	api.WriteJSON(w, http.StatusOK, map[string]any{"attributes": cfg.Attributes()})
}

type evaluateResponse struct {
	View   cart.View   `json:"view"`
	Action cart.Action `json:"action"`
}

// Evaluate renders a posted /cart.js snapshot and says which bonus mutation the
// storefront should make, if any. Nothing is mutated server-side.
func (h Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var c shopify.Cart
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&c); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart json")
		return
	}
	cfg, err := h.config(r)
	if err != nil {
		logx.FromContext(r.Context()).Warn("drawer config falls back to defaults", zap.Error(err))
		cfg = cart.DefaultConfig()
	}
	api.WriteJSON(w, http.StatusOK, evaluateResponse{View: cart.Render(c, cfg), Action: cart.Decide(c, cfg)})
}
