package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeEvents struct {
	seen    map[string]bool
	effects []Effect
	err     error
}

func (f *fakeEvents) Apply(ctx context.Context, ev Event, effect Effect) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := ev.ShopDomain + "|" + ev.Topic + "|" + ev.EventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.effects = append(f.effects, effect)
	return true, nil
}

func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func post(h http.Handler, topic, body, sig, eventID string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/shopify/"+topic, strings.NewReader(body))
	req.Header.Set("X-Shopify-Topic", strings.ReplaceAll(topic, "_", "/"))
	req.Header.Set("X-Shopify-Shop-Domain", "demo.myshopify.com")
	req.Header.Set("X-Shopify-Hmac-Sha256", sig)
	if eventID != "" {
		req.Header.Set("X-Shopify-Webhook-Id", eventID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestHandler_RejectsBadSignature(t *testing.T) {
	events := &fakeEvents{seen: map[string]bool{}}
	h := Handler{Secret: "secret", Events: events}

	if code := post(h, "app_uninstalled", `{}`, "bogus", "e1"); code != http.StatusUnauthorized {
		t.Fatalf("status=%d", code)
	}
	if len(events.effects) != 0 {
		t.Fatal("nothing should be applied")
	}
}

func TestHandler_UninstallIsIdempotent(t *testing.T) {
	events := &fakeEvents{seen: map[string]bool{}}
	h := Handler{Secret: "secret", Events: events}
	body := `{"id":1,"domain":"demo.myshopify.com"}`

	for i := 0; i < 2; i++ {
		if code := post(h, "app_uninstalled", body, signBody(body, "secret"), "e1"); code != http.StatusOK {
			t.Fatalf("status=%d", code)
		}
	}
	if len(events.effects) != 1 || events.effects[0] != EffectUninstall {
		t.Fatalf("effects=%v", events.effects)
	}
}

func TestHandler_PrivacyTopics(t *testing.T) {
	events := &fakeEvents{seen: map[string]bool{}}
	h := Handler{Secret: "secret", Events: events}

	body := `{"shop_domain":"demo.myshopify.com","customer":{"id":7},"orders_requested":[1,2]}`
	if code := post(h, "customers_data_request", body, signBody(body, "secret"), ""); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	body = `{"shop_id":1,"shop_domain":"demo.myshopify.com"}`
	if code := post(h, "shop_redact", body, signBody(body, "secret"), "e9"); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	want := []Effect{EffectNone, EffectRedactShop}
	if len(events.effects) != 2 || events.effects[0] != want[0] || events.effects[1] != want[1] {
		t.Fatalf("effects=%v want %v", events.effects, want)
	}
}

func TestHandler_FailedApplyIsRedelivered(t *testing.T) {
	events := &fakeEvents{seen: map[string]bool{}, err: errors.New("db down")}
	h := Handler{Secret: "secret", Events: events}
	body := `{"shop_id":1,"shop_domain":"demo.myshopify.com"}`

	if code := post(h, "shop_redact", body, signBody(body, "secret"), "e5"); code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500 so Shopify retries", code)
	}

	// Redelivery after recovery is applied once.
	events.err = nil
	if code := post(h, "shop_redact", body, signBody(body, "secret"), "e5"); code != http.StatusOK {
		t.Fatalf("retry status=%d", code)
	}
	if len(events.effects) != 1 || events.effects[0] != EffectRedactShop {
		t.Fatalf("effects=%v", events.effects)
	}
}

func TestNormalizeTopic(t *testing.T) {
	cases := map[string]string{
		"app/uninstalled":        "app_uninstalled",
		"customers/data_request": "customers_data_request",
		"SHOP/REDACT":            "shop_redact",
		" orders//paid ":         "orders_paid",
	}
	for in, want := range cases {
		if got := NormalizeTopic(in); got != want {
			t.Errorf("NormalizeTopic(%q)=%q want %q", in, got, want)
		}
	}
}

func TestVerifyShopifyWebhook(t *testing.T) {
	body := []byte(`{"ok":true}`)
	if !VerifyShopifyWebhook(body, signBody(string(body), "s"), "s") {
		t.Fatal("expected valid")
	}
	if VerifyShopifyWebhook(body, signBody(string(body), "s"), "") {
		t.Fatal("empty secret must fail")
	}
}
