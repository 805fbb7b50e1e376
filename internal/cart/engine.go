package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ecomkit/pkg/shopify"
)

// Message is one threshold line under the progress bar.
// Unlocked maps to the "success" class on the storefront.
type Message struct {
	Text      string `json:"text"`
	Unlocked  bool   `json:"unlocked"`
	Remaining int64  `json:"remaining"`
}

// Progress is everything the drawer derives from the cart total.
type Progress struct {
	Percent  decimal.Decimal `json:"percent"`
	Width    string          `json:"width"`
	Shipping Message         `json:"shipping"`
	Bonus    Message         `json:"bonus"`
}

var hundred = decimal.NewFromInt(100)

// Evaluate derives the progress bar and threshold messages. It has no side effects.
func Evaluate(c shopify.Cart, cfg Config) Progress {
	total := decimal.NewFromInt(c.TotalPrice)
	bonusLimit := minorUnits(cfg.BonusThreshold)

	ratio := decimal.NewFromInt(1)
	if bonusLimit.IsPositive() {
		ratio = decimal.Min(total.Div(bonusLimit), ratio)
	}
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	percent := ratio.Mul(hundred).Round(2)

	return Progress{
		Percent: percent,
		Width:   percent.String() + "%",
		Shipping: thresholdMessage(total, minorUnits(cfg.FreeShippingThreshold),
			"Encore %s pour livraison offerte", "Livraison gratuite débloquée !"),
		Bonus: thresholdMessage(total, bonusLimit,
			"Encore %s pour le cadeau offert", "Cadeau offert débloqué !"),
	}
}

func thresholdMessage(total, limit decimal.Decimal, beforeFmt, after string) Message {
	diff := limit.Sub(total)
	if diff.IsPositive() {
		remaining := diff.IntPart()
		return Message{Text: fmt.Sprintf(beforeFmt, FormatMoney(remaining)), Remaining: remaining}
	}
	return Message{Text: after, Unlocked: true}
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAdd
	ActionRemove
)

func (k ActionKind) String() string {
	switch k {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	default:
		return "none"
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is the single cart mutation needed to bring the bonus line in line with the total.
type Action struct {
	Kind      ActionKind `json:"kind"`
	VariantID int64      `json:"variantId,omitempty"`
	LineKey   string     `json:"lineKey,omitempty"`
}

// Decide compares the wanted bonus state (total >= bonus threshold) with the cart
// and returns at most one mutation.
func Decide(c shopify.Cart, cfg Config) Action {
	if cfg.BonusVariantID == 0 {
		return Action{}
	}

	line := bonusLine(c, cfg.BonusVariantID)
	want := decimal.NewFromInt(c.TotalPrice).GreaterThanOrEqual(minorUnits(cfg.BonusThreshold))

	switch {
	case want && line == nil:
		return Action{Kind: ActionAdd, VariantID: cfg.BonusVariantID}
	case !want && line != nil:
		return Action{Kind: ActionRemove, VariantID: cfg.BonusVariantID, LineKey: line.Key}
	default:
		return Action{}
	}
}

func bonusLine(c shopify.Cart, variantID int64) *shopify.CartLineItem {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}
