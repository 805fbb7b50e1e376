package cart

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ecomkit/pkg/shopify"
)

// Data attributes carried by the drawer container in the theme.
const (
	AttrFreeShippingThreshold = "data-free-shipping-threshold"
	AttrBonusThreshold        = "data-bonus-threshold"
	AttrBonusVariantID        = "data-bonus-variant-id"
)

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(69)
	DefaultBonusThreshold        = decimal.NewFromInt(100)
)

// Config holds the drawer thresholds in major currency units.
// A zero BonusVariantID disables bonus reconciliation.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	BonusThreshold        decimal.Decimal
	BonusVariantID        int64
}

// DefaultConfig is what the drawer runs with when the container carries no attributes.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		BonusThreshold:        DefaultBonusThreshold,
	}
}

// ConfigFromAttributes reads the container data attributes. Missing, unparseable,
// zero or negative thresholds fall back to the defaults.
func ConfigFromAttributes(attrs map[string]string) Config {
	return Config{
		FreeShippingThreshold: parseThreshold(attrs[AttrFreeShippingThreshold], DefaultFreeShippingThreshold),
		BonusThreshold:        parseThreshold(attrs[AttrBonusThreshold], DefaultBonusThreshold),
		BonusVariantID:        ParseVariantID(attrs[AttrBonusVariantID]),
	}
}

// Attributes renders cfg back into container data attributes.
func (c Config) Attributes() map[string]string {
	attrs := map[string]string{
		AttrFreeShippingThreshold: c.FreeShippingThreshold.String(),
		AttrBonusThreshold:        c.BonusThreshold.String(),
		AttrBonusVariantID:        "",
	}
	if c.BonusVariantID > 0 {
		attrs[AttrBonusVariantID] = strconv.FormatInt(c.BonusVariantID, 10)
	}
	return attrs
}

func parseThreshold(raw string, fallback decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return fallback
	}
	return d
}

// ParseVariantID accepts a numeric id or a ProductVariant GID. Anything else yields 0.
func ParseVariantID(raw string) int64 {
	id, err := strconv.ParseInt(shopify.LegacyID(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
