package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// CartLineItem is one line of the storefront AJAX cart (/cart.js).
type CartLineItem struct {
	Key          string `json:"key"`
	VariantID    int64  `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	Image        string `json:"image"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
}

// Cart is the storefront AJAX cart. Prices are in minor currency units.
type Cart struct {
	Token      string         `json:"token"`
	Items      []CartLineItem `json:"items"`
	ItemCount  int            `json:"item_count"`
	TotalPrice int64          `json:"total_price"`
	Currency   string         `json:"currency"`
}

// StorefrontCart drives the AJAX cart API of one storefront session.
// The cart is identified by cookie, so HTTPClient must keep a jar.
type StorefrontCart struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewStorefrontCart(baseURL string) (*StorefrontCart, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &StorefrontCart{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}, nil
}

func (s *StorefrontCart) Get(ctx context.Context) (Cart, error) {
	var cart Cart
	if err := s.do(ctx, http.MethodGet, "/cart.js", nil, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Add posts to /cart/add.js.
func (s *StorefrontCart) Add(ctx context.Context, variantID int64, quantity int) error {
	return s.do(ctx, http.MethodPost, "/cart/add.js", map[string]any{"id": variantID, "quantity": quantity}, nil)
}

// Change posts to /cart/change.js addressing the line by its key.
func (s *StorefrontCart) Change(ctx context.Context, lineKey string, quantity int) error {
	return s.do(ctx, http.MethodPost, "/cart/change.js", map[string]any{"id": lineKey, "quantity": quantity}, nil)
}

func (s *StorefrontCart) do(ctx context.Context, method, path string, reqBody any, respBody any) error {
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storefront %s %s: status=%d body=%s", method, path, resp.StatusCode, string(b))
	}
	if respBody != nil {
		if err := json.Unmarshal(b, respBody); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}
