package shopify

import (
	"context"
	"fmt"
)

// MaxMetafieldsPerSet is the Admin API limit for one metafieldsSet call.
const MaxMetafieldsPerSet = 25

// Metafield types used by the settings pages.
const (
	TypeBoolean       = "boolean"
	TypeDecimal       = "number_decimal"
	TypeInteger       = "number_integer"
	TypeSingleLineTxt = "single_line_text_field"
)

type Metafield struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type MetafieldsSetInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	OwnerID   string `json:"ownerId"`
}

const shopIDQuery = `
query {
  shop {
    id
  }
}
`

// ShopID returns the shop's GID, used as ownerId for shop metafields.
func (c Client) ShopID(ctx context.Context) (string, error) {
	var data struct {
		Shop struct {
			ID string `json:"id"`
		} `json:"shop"`
	}
	if err := c.GraphQL(ctx, shopIDQuery, nil, &data); err != nil {
		return "", err
	}
	if data.Shop.ID == "" {
		return "", fmt.Errorf("shop query returned empty id")
	}
	return data.Shop.ID, nil
}

const shopMetafieldsQuery = `
query ShopMetafields($namespace: String!, $after: String) {
  shop {
    metafields(namespace: $namespace, first: 100, after: $after) {
      edges {
        node {
          id
          namespace
          key
          type
          value
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

// ShopMetafields lists every shop metafield in namespace, following pagination.
func (c Client) ShopMetafields(ctx context.Context, namespace string) ([]Metafield, error) {
	var out []Metafield
	var after *string
	for {
		var data struct {
			Shop struct {
				Metafields struct {
					Edges []struct {
						Node Metafield `json:"node"`
					} `json:"edges"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"metafields"`
			} `json:"shop"`
		}
		vars := map[string]any{"namespace": namespace}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.GraphQL(ctx, shopMetafieldsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("shop metafields %s: %w", namespace, err)
		}
		for _, e := range data.Shop.Metafields.Edges {
			out = append(out, e.Node)
		}
		pi := data.Shop.Metafields.PageInfo
		if !pi.HasNextPage || pi.EndCursor == "" {
			return out, nil
		}
		cursor := pi.EndCursor
		after = &cursor
	}
}

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
      namespace
      key
      type
      value
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

// SetMetafields upserts up to MaxMetafieldsPerSet metafields in one call.
// userErrors are returned as UserErrors.
func (c Client) SetMetafields(ctx context.Context, inputs []MetafieldsSetInput) ([]Metafield, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > MaxMetafieldsPerSet {
		return nil, fmt.Errorf("metafieldsSet accepts at most %d metafields, got %d", MaxMetafieldsPerSet, len(inputs))
	}

	var data struct {
		MetafieldsSet struct {
			Metafields []Metafield `json:"metafields"`
			UserErrors UserErrors  `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.GraphQL(ctx, metafieldsSetMutation, map[string]any{"metafields": inputs}, &data); err != nil {
		return nil, err
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return nil, data.MetafieldsSet.UserErrors
	}
	return data.MetafieldsSet.Metafields, nil
}

// ChunkMetafields splits inputs into consecutive batches of at most size entries.
func ChunkMetafields(inputs []MetafieldsSetInput, size int) [][]MetafieldsSetInput {
	if size <= 0 {
		size = MaxMetafieldsPerSet
	}
	var out [][]MetafieldsSetInput
	for i := 0; i < len(inputs); i += size {
		end := i + size
		if end > len(inputs) {
			end = len(inputs)
		}
		out = append(out, inputs[i:end])
	}
	return out
}
