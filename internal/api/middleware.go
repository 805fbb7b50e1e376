package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ecomkit/internal/shop"
	"ecomkit/pkg/logx"
)

// ShopStore is the subset of the shop repository the auth middleware needs.
type ShopStore interface {
	FindByDomain(ctx context.Context, domain string) (*shop.Shop, error)
	Upsert(ctx context.Context, domain, accessToken, scope string) (*shop.Shop, error)
}

// MerchantAuth is a shop-scoped auth middleware for local development.
//
// Contract:
// - Caller provides the shop domain via `X-Shop-Domain` header or `?shop=` query param.
// - Middleware loads the shop record from DB and attaches it to context.
//
// Never mounted when APP_ENV=prod; session tokens are required there.
func MerchantAuth(shops ShopStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopDomain := strings.TrimSpace(r.Header.Get("X-Shop-Domain"))
			if shopDomain == "" {
				shopDomain = strings.TrimSpace(r.URL.Query().Get("shop"))
			}
			if shopDomain == "" {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
				return
			}

			s, ok := resolveShop(w, r, shops, shopDomain)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(attachShop(r.Context(), s, "dev")))
		})
	}
}

// resolveShop loads the shop, registering it when the embedded app forwards an offline token.
func resolveShop(w http.ResponseWriter, r *http.Request, shops ShopStore, domain string) (*shop.Shop, bool) {
	ctx := r.Context()
	accessToken := strings.TrimSpace(r.Header.Get("X-Shopify-Access-Token"))

	s, err := shops.FindByDomain(ctx, domain)
	if err != nil && !errors.Is(err, shop.ErrNotFound) {
		logx.FromContext(ctx).Error("shop lookup failed", zap.String("shop", domain), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load shop")
		return nil, false
	}

	if accessToken != "" && (s == nil || s.AccessToken != accessToken) {
		updated, err := shops.Upsert(ctx, domain, accessToken, "")
		if err != nil {
			logx.FromContext(ctx).Error("shop register failed", zap.String("shop", domain), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to register shop")
			return nil, false
		}
		s = updated
	}

	if !s.Installed() {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "shop is not installed")
		return nil, false
	}
	return s, true
}

func attachShop(ctx context.Context, s *shop.Shop, actor string) context.Context {
	l := logx.FromContext(ctx).With(zap.String("shop", s.Domain))
	ctx = logx.WithLogger(ctx, l)
	ctx = WithActor(ctx, actor)
	return WithShop(ctx, s)
}
