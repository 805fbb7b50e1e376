package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Plan is a managed-pricing plan as shown on the plans page. Shopify owns the real
// definition; this is the copy merchants read before being sent there.
type Plan struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"-"`
	Currency  string          `json:"currency"`
	Interval  string          `json:"interval"`
	TrialDays int             `json:"trialDays"`
	Features  []string        `json:"features"`
}

var Premium = Plan{
	Name:      "Premium",
	Price:     decimal.RequireFromString("19.90"),
	Currency:  "€",
	Interval:  "mois",
	TrialDays: 7,
	Features: []string{
		"BoostCart : barre de progression et cadeau automatique",
		"Pack Builder",
		"Cartes Bundle",
		"Ultimate Pack",
		"Support prioritaire",
	},
}

// DisplayPrice renders "19,90€/mois".
func (p Plan) DisplayPrice() string {
	return strings.Replace(p.Price.StringFixed(2), ".", ",", 1) + p.Currency + "/" + p.Interval
}
