package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomkit/internal/api"
	"ecomkit/internal/shop"
	"ecomkit/pkg/shopify"
)

type fakeSubs struct {
	list  []shopify.AppSubscription
	err   error
	calls int
}

func (f *fakeSubs) ActiveSubscriptions(ctx context.Context) ([]shopify.AppSubscription, error) {
	f.calls++
	return f.list, f.err
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testGate() Gate {
	return Gate{
		DevStores: []string{"ecomkit-demo.myshopify.com"},
		AppHandle: "ecom-kit-2",
		Now:       func() time.Time { return now },
	}
}

func TestCheck_DevStoreBypassesLookup(t *testing.T) {
	subs := &fakeSubs{}
	st, err := testGate().Check(context.Background(), "ecomkit-demo.myshopify.com", subs)
	require.NoError(t, err)
	assert.True(t, st.HasActivePayment)
	assert.Equal(t, StatusDevelopment, st.Status)
	assert.True(t, st.IsDevelopmentStore)
	assert.Zero(t, subs.calls)
}

func TestCheck_NoSubscriptionRedirectsToPricing(t *testing.T) {
	st, err := testGate().Check(context.Background(), "cool-shop.myshopify.com", &fakeSubs{})
	require.NoError(t, err)
	assert.False(t, st.HasActivePayment)
	assert.Equal(t, "https://admin.shopify.com/store/cool-shop/charges/ecom-kit-2/pricing_plans", st.RedirectURL)
}

func TestCheck_IgnoresNonActiveSubscriptions(t *testing.T) {
	subs := &fakeSubs{list: []shopify.AppSubscription{{Name: "Premium", Status: "PENDING"}}}
	st, err := testGate().Check(context.Background(), "cool-shop.myshopify.com", subs)
	require.NoError(t, err)
	assert.False(t, st.HasActivePayment)
}

func TestCheck_TrialDaysRemaining(t *testing.T) {
	subs := &fakeSubs{list: []shopify.AppSubscription{{
		Name:      "Premium",
		Status:    StatusActive,
		Test:      true,
		TrialDays: 7,
		CreatedAt: now.Add(-(2*24*time.Hour + 3*time.Hour)),
	}}}
	st, err := testGate().Check(context.Background(), "cool-shop.myshopify.com", subs)
	require.NoError(t, err)
	assert.True(t, st.HasActivePayment)
	assert.True(t, st.IsTrialActive)
	assert.Equal(t, 5, st.TrialDaysRemaining)
	assert.Equal(t, "Premium", st.PlanName)
}

func TestTrialDaysRemaining_NeverNegative(t *testing.T) {
	sub := shopify.AppSubscription{TrialDays: 7, CreatedAt: now.Add(-30 * 24 * time.Hour)}
	assert.Equal(t, 0, TrialDaysRemaining(sub, now))
	assert.Equal(t, 0, TrialDaysRemaining(shopify.AppSubscription{}, now))
}

func TestCheck_LookupFailure(t *testing.T) {
	subs := &fakeSubs{err: errors.New("timeout")}

	st, err := testGate().Check(context.Background(), "cool-shop.myshopify.com", subs)
	require.Error(t, err)
	assert.False(t, st.HasActivePayment, "deny by default")
	assert.NotEmpty(t, st.RedirectURL)

	g := testGate()
	g.FailOpen = true
	st, err = g.Check(context.Background(), "cool-shop.myshopify.com", subs)
	require.Error(t, err)
	assert.True(t, st.HasActivePayment)
	assert.Equal(t, StatusUnknown, st.Status)
}

func TestPremiumDisplayPrice(t *testing.T) {
	assert.Equal(t, "19,90€/mois", Premium.DisplayPrice())
}

type fakePlans struct{ updated map[string]string }

func (f *fakePlans) UpdatePlan(ctx context.Context, id, plan string) error {
	f.updated[id] = plan
	return nil
}

func TestRequire(t *testing.T) {
	s := &shop.Shop{ID: "s1", Domain: "cool-shop.myshopify.com", AccessToken: "t", Status: shop.StatusActive}
	withShop := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, r.WithContext(api.WithShop(r.Context(), s)))
		})
	}

	var seen Status
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("denied", func(t *testing.T) {
		mw := Require(testGate(), func(*shop.Shop) Subscriptions { return &fakeSubs{} }, nil)
		rec := httptest.NewRecorder()
		withShop(mw(next)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/app", nil))
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, rec.Body.String(), `"redirectUrl":"https://admin.shopify.com/store/cool-shop/charges/ecom-kit-2/pricing_plans"`)
	})

	t.Run("admitted", func(t *testing.T) {
		plans := &fakePlans{updated: map[string]string{}}
		subs := &fakeSubs{list: []shopify.AppSubscription{{Name: "Premium", Status: StatusActive}}}
		mw := Require(testGate(), func(*shop.Shop) Subscriptions { return subs }, plans)
		rec := httptest.NewRecorder()
		withShop(mw(next)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/app", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "Premium", seen.PlanName)
		assert.Equal(t, "Premium", plans.updated["s1"])
	})
}
