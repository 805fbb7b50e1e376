package shopify

import (
	"context"
	"fmt"
	"strings"
)

const webhookSubscriptionCreateMutation = `
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: WebhookSubscriptionInput!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}
`

// WebhookTopicEnum converts "app/uninstalled" to the GraphQL enum APP_UNINSTALLED.
func WebhookTopicEnum(topic string) string {
	t := strings.ToUpper(strings.TrimSpace(topic))
	return strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(t)
}

// CreateWebhook subscribes callbackURL to topic ("app/uninstalled" style).
func (c Client) CreateWebhook(ctx context.Context, topic string, callbackURL string) error {
	topic = strings.TrimSpace(topic)
	callbackURL = strings.TrimSpace(callbackURL)
	if topic == "" || callbackURL == "" {
		return fmt.Errorf("missing topic or callback url")
	}

	var data struct {
		WebhookSubscriptionCreate struct {
			WebhookSubscription *struct {
				ID string `json:"id"`
			} `json:"webhookSubscription"`
			UserErrors UserErrors `json:"userErrors"`
		} `json:"webhookSubscriptionCreate"`
	}
	vars := map[string]any{
		"topic": WebhookTopicEnum(topic),
		"webhookSubscription": map[string]any{
			"callbackUrl": callbackURL,
			"format":      "JSON",
		},
	}
	if err := c.GraphQL(ctx, webhookSubscriptionCreateMutation, vars, &data); err != nil {
		return err
	}
	if len(data.WebhookSubscriptionCreate.UserErrors) > 0 {
		return data.WebhookSubscriptionCreate.UserErrors
	}
	if data.WebhookSubscriptionCreate.WebhookSubscription == nil {
		return fmt.Errorf("webhookSubscriptionCreate returned no subscription")
	}
	return nil
}
