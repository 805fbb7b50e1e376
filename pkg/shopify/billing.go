package shopify

import (
	"context"
	"time"
)

// AppSubscription is the read-only view of an app subscription on the current installation.
type AppSubscription struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	Test             bool       `json:"test"`
	TrialDays        int        `json:"trialDays"`
	CreatedAt        time.Time  `json:"createdAt"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

const activeSubscriptionsQuery = `
query {
  currentAppInstallation {
    activeSubscriptions {
      id
      name
      status
      test
      trialDays
      createdAt
      currentPeriodEnd
    }
  }
}
`

func (c Client) ActiveSubscriptions(ctx context.Context) ([]AppSubscription, error) {
	var data struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []AppSubscription `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	}
	if err := c.GraphQL(ctx, activeSubscriptionsQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.CurrentAppInstallation.ActiveSubscriptions, nil
}
