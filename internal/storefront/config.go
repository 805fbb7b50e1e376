package storefront

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ecomkit/internal/cart"
)

const offerSlots = 3

// DrawerConfig derives the drawer thresholds from the offers settings: the first
// enabled shipping offer sets free shipping, the first enabled gift offer sets the
// bonus threshold. Anything unset keeps the drawer defaults.
func DrawerConfig(values map[string]string) cart.Config {
	cfg := cart.DefaultConfig()
	var haveShipping, haveGift bool

	for i := 1; i <= offerSlots; i++ {
		if values[fmt.Sprintf("enable_offer%d", i)] != "true" {
			continue
		}
		threshold, err := decimal.NewFromString(values[fmt.Sprintf("offer%d_threshold", i)])
		if err != nil || !threshold.IsPositive() {
			continue
		}
		switch values[fmt.Sprintf("offer%d_type", i)] {
		case "shipping":
			if !haveShipping {
				cfg.FreeShippingThreshold = threshold
				haveShipping = true
			}
		case "gift":
			if !haveGift {
				cfg.BonusThreshold = threshold
				haveGift = true
			}
		}
	}

	cfg.BonusVariantID = cart.ParseVariantID(values["bonus_variant_id"])
	return cfg
}
