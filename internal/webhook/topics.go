package webhook

import "strings"

// Normalized topics this app subscribes to or must answer for the app store.
const (
	TopicAppUninstalled       = "app_uninstalled"
	TopicShopRedact           = "shop_redact"
	TopicCustomersDataRequest = "customers_data_request"
	TopicCustomersRedact      = "customers_redact"
)

// NormalizeTopic maps a Shopify topic ("app/uninstalled", "APP_UNINSTALLED", "shop.redact")
// to the underscore form used in routes and the webhook_events table.
func NormalizeTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	t = strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(t)
	parts := strings.FieldsFunc(t, func(r rune) bool { return r == '_' })
	return strings.Join(parts, "_")
}

// EffectFor maps a normalized topic to its local effect. Unknown topics are accepted
// and only recorded.
func EffectFor(topic string) Effect {
	switch topic {
	case TopicAppUninstalled:
		return EffectUninstall
	case TopicShopRedact:
		return EffectRedactShop
	default:
		return EffectNone
	}
}

func isPrivacyTopic(topic string) bool {
	return topic == TopicCustomersDataRequest || topic == TopicCustomersRedact
}
