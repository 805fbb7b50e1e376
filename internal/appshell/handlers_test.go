package appshell

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomkit/internal/api"
	"ecomkit/internal/billing"
	"ecomkit/internal/settings"
	"ecomkit/internal/shop"
	"ecomkit/pkg/config"
	"ecomkit/pkg/shopify"
)

type fakeStore struct {
	stored map[string][]shopify.Metafield
}

func (f fakeStore) ShopID(ctx context.Context) (string, error) { return "gid://shopify/Shop/1", nil }

func (f fakeStore) ShopMetafields(ctx context.Context, ns string) ([]shopify.Metafield, error) {
	return f.stored[ns], nil
}

func (f fakeStore) SetMetafields(ctx context.Context, in []shopify.MetafieldsSetInput) ([]shopify.Metafield, error) {
	return nil, nil
}

func testHandlers(t *testing.T, store settings.Store) Handlers {
	t.Helper()
	reg, err := settings.LoadRegistry()
	require.NoError(t, err)
	cfg := config.Config{
		Shopify: config.ShopifyConfig{APIKey: "key-1", AppHandle: "ecom-kit-2"},
		Support: config.SupportConfig{Email: "help@example.com", DocsURL: "https://example.com/docs"},
	}
	return Handlers{
		Cfg:      cfg,
		Settings: settings.NewService(reg, nil),
		StoreFor: func(*shop.Shop) settings.Store { return store },
	}
}

func shopRequest(path string, st *billing.Status) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := api.WithShop(r.Context(), &shop.Shop{ID: "s1", Domain: "cool-shop.myshopify.com"})
	if st != nil {
		ctx = billing.WithStatus(ctx, *st)
	}
	return r.WithContext(ctx)
}

func TestApp_NavAndSubscription(t *testing.T) {
	h := testHandlers(t, fakeStore{})
	rec := httptest.NewRecorder()
	h.App(rec, shopRequest("/v1/app", &billing.Status{HasActivePayment: true, Status: "ACTIVE", TrialDaysRemaining: 3}))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		APIKey       string         `json:"apiKey"`
		Nav          []NavLink      `json:"nav"`
		Subscription billing.Status `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "key-1", body.APIKey)
	require.Len(t, body.Nav, 7)
	assert.Equal(t, "Plans & Facturation", body.Nav[6].Label)
	assert.Equal(t, 3, body.Subscription.TrialDaysRemaining)
}

func TestDashboard_CountsExtensions(t *testing.T) {
	store := fakeStore{stored: map[string][]shopify.Metafield{
		"ecomkit": {{Key: "enable_offer1", Value: "true"}},
	}}
	h := testHandlers(t, store)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, shopRequest("/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Stats.TotalExtensions)
	assert.Equal(t, 4, body.Stats.ActiveExtensions)
	assert.Equal(t, 1, body.Stats.Configured)
	assert.True(t, body.Extensions[0].Configured)
	assert.Equal(t, "BoostCart", body.Extensions[0].Name)
}

func TestPlans_PricingURLForShop(t *testing.T) {
	h := testHandlers(t, fakeStore{})
	rec := httptest.NewRecorder()
	h.Plans(rec, shopRequest("/v1/plans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"displayPrice":"19,90€/mois"`)
	assert.Contains(t, rec.Body.String(), "https://admin.shopify.com/store/cool-shop/charges/ecom-kit-2/pricing_plans")
}

func TestSupport(t *testing.T) {
	h := testHandlers(t, fakeStore{})
	rec := httptest.NewRecorder()
	h.Support(rec, httptest.NewRequest(http.MethodGet, "/v1/support", nil))
	assert.Contains(t, rec.Body.String(), `"mailto":"mailto:help@example.com"`)
}
