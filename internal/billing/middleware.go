package billing

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/internal/shop"
	"ecomkit/pkg/logx"
)

type ctxKey struct{}

func WithStatus(ctx context.Context, s Status) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the status attached by the middleware and whether there was one.
func FromContext(ctx context.Context) (Status, bool) {
	s, ok := ctx.Value(ctxKey{}).(Status)
	return s, ok
}

// PlanCache remembers the last plan name seen for a shop.
type PlanCache interface {
	UpdatePlan(ctx context.Context, id, plan string) error
}

// Require runs the gate for the shop in context. Denied shops get a 402 carrying the
// pricing page URL; admitted ones continue with the Status in context.
func Require(g Gate, subsFor func(*shop.Shop) Subscriptions, plans PlanCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s := api.ShopFromContext(ctx)
			if s == nil {
				api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
				return
			}
			log := logx.FromContext(ctx)

			st, err := g.Check(ctx, s.Domain, subsFor(s))
			if err != nil {
				log.Error("billing check failed", zap.Bool("fail_open", g.FailOpen), zap.Error(err))
			}
			if !st.HasActivePayment {
				api.WriteRedirect(w, "SUBSCRIPTION_REQUIRED", "Un abonnement actif est requis", st.RedirectURL)
				return
			}

			if plans != nil && st.PlanName != "" && st.PlanName != s.Plan {
				if err := plans.UpdatePlan(ctx, s.ID, st.PlanName); err != nil {
					log.Warn("plan cache update failed", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r.WithContext(WithStatus(ctx, st)))
		})
	}
}
