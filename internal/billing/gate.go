package billing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"ecomkit/pkg/shopify"
)

const (
	StatusActive      = "ACTIVE"
	StatusDevelopment = "DEVELOPMENT"
	StatusNone        = "NONE"
	StatusUnknown     = "UNKNOWN"
)

// Subscriptions reads the app subscriptions of the current installation. shopify.Client satisfies it.
type Subscriptions interface {
	ActiveSubscriptions(ctx context.Context) ([]shopify.AppSubscription, error)
}

// Status is what the app shell and every child page see about the shop's access.
type Status struct {
	HasActivePayment   bool                     `json:"hasAccess"`
	Status             string                   `json:"subscriptionStatus"`
	IsDevelopmentStore bool                     `json:"isDevelopmentStore"`
	PlanName           string                   `json:"planName,omitempty"`
	IsTrialActive      bool                     `json:"isTrialActive"`
	TrialDaysRemaining int                      `json:"trialDaysRemaining"`
	RedirectURL        string                   `json:"redirectUrl,omitempty"`
	Details            *shopify.AppSubscription `json:"details,omitempty"`
}

type Gate struct {
	DevStores []string
	AppHandle string
	// FailOpen admits merchants when the subscription lookup itself fails.
	FailOpen bool
	Now      func() time.Time
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Check decides whether shopDomain may use the app. A non-nil error means the lookup
// failed; the returned Status then reflects the fail-open policy.
func (g Gate) Check(ctx context.Context, shopDomain string, subs Subscriptions) (Status, error) {
	shopDomain = shopify.NormalizeShopDomain(shopDomain)
	if slices.Contains(g.DevStores, shopDomain) {
		return Status{HasActivePayment: true, Status: StatusDevelopment, IsDevelopmentStore: true, PlanName: "Development"}, nil
	}

	list, err := subs.ActiveSubscriptions(ctx)
	if err != nil {
		if g.FailOpen {
			return Status{HasActivePayment: true, Status: StatusUnknown}, fmt.Errorf("read subscriptions: %w", err)
		}
		return g.denied(shopDomain), fmt.Errorf("read subscriptions: %w", err)
	}

	i := slices.IndexFunc(list, func(s shopify.AppSubscription) bool { return s.Status == StatusActive })
	if i < 0 {
		return g.denied(shopDomain), nil
	}

	sub := list[i]
	st := Status{
		HasActivePayment: true,
		Status:           sub.Status,
		PlanName:         sub.Name,
		IsTrialActive:    sub.Test,
		Details:          &sub,
	}
	if st.IsTrialActive {
		st.TrialDaysRemaining = TrialDaysRemaining(sub, g.now())
	}
	return st, nil
}

func (g Gate) denied(shopDomain string) Status {
	return Status{Status: StatusNone, RedirectURL: PricingURL(shopDomain, g.AppHandle)}
}

// PricingURL is the managed pricing page of the app for a shop.
func PricingURL(shopDomain, appHandle string) string {
	return fmt.Sprintf("https://admin.shopify.com/store/%s/charges/%s/pricing_plans",
		shopify.StoreHandle(shopDomain), appHandle)
}

// TrialDaysRemaining counts whole days elapsed since the subscription was created and
// never goes below zero.
func TrialDaysRemaining(sub shopify.AppSubscription, now time.Time) int {
	if sub.TrialDays <= 0 || sub.CreatedAt.IsZero() {
		return 0
	}
	elapsed := int(now.Sub(sub.CreatedAt) / (24 * time.Hour))
	return max(0, sub.TrialDays-elapsed)
}
