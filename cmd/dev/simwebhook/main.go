package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		url       = flag.String("url", "", "webhook endpoint url (defaults to http://localhost<HTTP_ADDR>/v1/webhooks/shopify/<topic>)")
		topic     = flag.String("topic", "app/uninstalled", "shopify topic header value")
		shop      = flag.String("shop", "ecomkit-demo.myshopify.com", "X-Shopify-Shop-Domain")
		secret    = flag.String("secret", os.Getenv("SHOPIFY_WEBHOOK_SECRET"), "signing secret (SHOPIFY_WEBHOOK_SECRET, else SHOPIFY_API_SECRET)")
		payload   = flag.String("payload", "", "path to json payload file (defaults to a minimal body for the topic)")
		webhookID = flag.String("id", "", "optional webhook id header value")
	)
	flag.Parse()

	routeTopic := strings.ReplaceAll(*topic, "/", "_")
	if *url == "" {
		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" || httpAddr[0] != ':' {
			httpAddr = ":8081"
		}
		*url = "http://localhost" + httpAddr + "/v1/webhooks/shopify/" + routeTopic
	}

	if *secret == "" {
		*secret = os.Getenv("SHOPIFY_API_SECRET")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret")
		os.Exit(2)
	}

	b, err := loadPayload(*payload, routeTopic, *shop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read payload: %v\n", err)
		os.Exit(2)
	}

	sig := sign(b, *secret)

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Topic", *topic)
	req.Header.Set("X-Shopify-Shop-Domain", *shop)
	req.Header.Set("X-Shopify-Hmac-Sha256", sig)
	if *webhookID != "" {
		req.Header.Set("X-Shopify-Webhook-Id", *webhookID)
	}

	c := &http.Client{Timeout: 10 * time.Second}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}

// loadPayload reads the payload file, or builds the smallest body Shopify would send for topic.
func loadPayload(path, topic, shop string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	var body map[string]any
	switch topic {
	case "customers_data_request":
		body = map[string]any{"shop_domain": shop, "customer": map[string]any{"id": 1}, "orders_requested": []int{}}
	case "customers_redact":
		body = map[string]any{"shop_domain": shop, "customer": map[string]any{"id": 1}, "orders_to_redact": []int{}}
	case "shop_redact":
		body = map[string]any{"shop_domain": shop}
	default:
		body = map[string]any{"domain": shop, "myshopify_domain": shop}
	}
	return json.Marshal(body)
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}


