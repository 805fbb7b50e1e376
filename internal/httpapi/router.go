package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/internal/appshell"
	"ecomkit/internal/audit"
	"ecomkit/internal/auth"
	"ecomkit/internal/billing"
	"ecomkit/internal/settings"
	"ecomkit/internal/shop"
	"ecomkit/internal/storefront"
	"ecomkit/internal/webhook"
	"ecomkit/pkg/config"
	"ecomkit/pkg/shopify"
)

type Dependencies struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Log      *zap.Logger
	Registry *settings.Registry
}

// AdminClient builds the Admin API client for a shop's offline token.
func AdminClient(cfg config.Config, s *shop.Shop) shopify.Client {
	return shopify.Client{ShopDomain: s.Domain, AccessToken: s.AccessToken, APIVersion: cfg.Shopify.APIVersion}
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(deps.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Ping(r.Context()); err != nil {
			api.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	cfg := deps.Cfg
	shopsRepo := shop.NewRepository(deps.DB)
	auditRepo := audit.NewRepository(deps.DB)
	webhookRepo := webhook.NewRepository(deps.DB)

	settingsSvc := settings.NewService(deps.Registry, deps.Log.Named("settings"))
	storeFor := func(s *shop.Shop) settings.Store { return AdminClient(cfg, s) }
	subsFor := func(s *shop.Shop) billing.Subscriptions { return AdminClient(cfg, s) }

	gate := billing.Gate{
		DevStores: cfg.Billing.DevStoreDomains,
		AppHandle: cfg.Shopify.AppHandle,
		FailOpen:  cfg.Billing.FailOpen,
	}

	authHandlers := auth.Handlers{Cfg: cfg, Shops: shopsRepo}
	shellHandlers := appshell.Handlers{Cfg: cfg, Settings: settingsSvc, StoreFor: storeFor}
	settingsHandlers := settings.Handlers{Service: settingsSvc, Audit: auditRepo, StoreFor: storeFor}
	proxyHandlers := storefront.Handlers{Settings: settingsSvc, StoreFor: storeFor}
	webhookHandler := webhook.Handler{Secret: cfg.Shopify.WebhookSigningSecret(), Events: webhookRepo}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/auth/install", authHandlers.Install)
		r.Get("/auth/callback", authHandlers.Callback)

		// Embedded admin APIs (shop-scoped)
		r.Group(func(r chi.Router) {
			r.Use(api.CORSMiddleware(api.CORSOptions{AllowedOrigins: cfg.CORSOrigins}))
			// Production: Shopify embedded session token auth
			// Dev: falls back to X-Shop-Domain if Authorization is missing.
			r.Use(api.ShopifySessionAuth(cfg, shopsRepo))

			// Reachable without a subscription.
			r.Get("/plans", shellHandlers.Plans)
			r.Get("/support", shellHandlers.Support)

			r.Group(func(r chi.Router) {
				r.Use(billing.Require(gate, subsFor, shopsRepo))

				r.Get("/app", shellHandlers.App)
				r.Get("/dashboard", shellHandlers.Dashboard)

				r.Get("/settings/{feature}", settingsHandlers.Get)
				r.Post("/settings/{feature}", settingsHandlers.Post)
				r.Get("/settings/{feature}/history", settingsHandlers.History)
			})
		})

		// Storefront, forwarded by the app proxy
		r.Route("/proxy", func(r chi.Router) {
			r.Use(storefront.ProxyAuth(cfg.Shopify.APISecret, shopsRepo))
			r.Get("/drawer-config", proxyHandlers.DrawerConfigHandler)
			r.Post("/drawer-evaluate", proxyHandlers.Evaluate)
		})

		// Webhooks
		r.Post("/webhooks/shopify/{topic}", webhookHandler.ServeHTTP)
	})

	return r
}
