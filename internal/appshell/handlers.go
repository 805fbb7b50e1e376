package appshell

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/internal/billing"
	"ecomkit/internal/settings"
	"ecomkit/pkg/config"
	"ecomkit/pkg/logx"
)

type Handlers struct {
	Cfg      config.Config
	Settings *settings.Service
	StoreFor settings.StoreFunc
}

// App is the shell loader: api key for App Bridge, navigation, and the subscription
// state the billing middleware attached.
func (h Handlers) App(w http.ResponseWriter, r *http.Request) {
	st, _ := billing.FromContext(r.Context())
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"apiKey":       h.Cfg.Shopify.APIKey,
		"nav":          nav,
		"subscription": st,
	})
}

type dashboardExtension struct {
	Extension
	Configured bool `json:"configured"`
}

type dashboardResponse struct {
	Title        string               `json:"title"`
	Extensions   []dashboardExtension `json:"extensions"`
	Stats        dashboardStats       `json:"stats"`
	Subscription billing.Status       `json:"subscription"`
}

type dashboardStats struct {
	TotalExtensions  int `json:"totalExtensions"`
	ActiveExtensions int `json:"activeExtensions"`
	Configured       int `json:"configured"`
}

// Dashboard lists the extensions and whether each one has saved settings.
// A settings read failure degrades to "not configured" instead of failing the page.
func (h Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := api.ShopFromContext(ctx)
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
		return
	}

	exts := Extensions()
	features := make([]string, 0, len(exts))
	for _, e := range exts {
		features = append(features, e.Feature)
	}
	pages, err := h.Settings.LoadAll(ctx, h.StoreFor(s), features)
	if err != nil {
		logx.FromContext(ctx).Warn("dashboard settings load incomplete", zap.Error(err))
	}

	resp := dashboardResponse{Title: "Ecomkit - Extensions Shopify"}
	resp.Subscription, _ = billing.FromContext(ctx)
	for _, e := range exts {
		d := dashboardExtension{Extension: e, Configured: pages[e.Feature].Stored > 0}
		resp.Extensions = append(resp.Extensions, d)
		resp.Stats.TotalExtensions++
		if e.Status == statusActive {
			resp.Stats.ActiveExtensions++
		}
		if d.Configured {
			resp.Stats.Configured++
		}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// Plans is reachable without a subscription so merchants can see the offer.
func (h Handlers) Plans(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
		return
	}
	p := billing.Premium
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"plan":         p,
		"displayPrice": p.DisplayPrice(),
		"trial":        fmt.Sprintf("Essai gratuit de %d jours", p.TrialDays),
		"pricingUrl":   billing.PricingURL(s.Domain, h.Cfg.Shopify.AppHandle),
	})
}

func (h Handlers) Support(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"email":   h.Cfg.Support.Email,
		"mailto":  "mailto:" + h.Cfg.Support.Email,
		"docsUrl": h.Cfg.Support.DocsURL,
	})
}
