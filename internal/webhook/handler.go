package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/pkg/logx"
)

// maxBody caps webhook payloads; Shopify's are far below this.
const maxBody = 1 << 20

type EventStore interface {
	Apply(ctx context.Context, ev Event, effect Effect) (bool, error)
}

type Handler struct {
	Secret string
	Events EventStore
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Prefer Shopify's topic header; fall back to route param.
	topic := strings.TrimSpace(r.Header.Get("X-Shopify-Topic"))
	if topic == "" {
		topic = chi.URLParam(r, "topic")
	}
	topic = NormalizeTopic(topic)

	shopDomain := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Shopify-Shop-Domain")))
	hmacHeader := strings.TrimSpace(r.Header.Get("X-Shopify-Hmac-Sha256"))
	eventID := strings.TrimSpace(r.Header.Get("X-Shopify-Webhook-Id"))
	if eventID == "" {
		eventID = strings.TrimSpace(r.Header.Get("X-Shopify-Event-Id"))
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	if !VerifyShopifyWebhook(body, hmacHeader, h.Secret) {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	log := logx.FromContext(ctx).With(zap.String("shop", shopDomain), zap.String("topic", topic))
	if shopDomain == "" {
		log.Warn("webhook without shop domain ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	payloadHash := sha256Hex(body)
	if eventID == "" {
		// Fallback idempotency key when webhook-id header isn't present.
		eventID = payloadHash
	}
	log = log.With(zap.String("event_id", eventID))

	ev := Event{ShopDomain: shopDomain, Topic: topic, EventID: eventID, PayloadHash: payloadHash}
	applied, err := h.Events.Apply(ctx, ev, EffectFor(topic))
	if err != nil {
		// The claim rolled back with the effect; a non-2xx makes Shopify redeliver.
		log.Error("webhook processing failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "WEBHOOK_FAILED", "webhook processing failed")
		return
	}
	if !applied {
		log.Debug("webhook already processed")
	} else {
		logPrivacyRequest(log, topic, body)
		log.Info("webhook processed")
	}

	// Shopify expects a 200 quickly.
	w.WriteHeader(http.StatusOK)
}

type privacyPayload struct {
	ShopDomain string `json:"shop_domain"`
	Customer   struct {
		ID int64 `json:"id"`
	} `json:"customer"`
	OrdersRequested []int64 `json:"orders_requested"`
	OrdersToRedact  []int64 `json:"orders_to_redact"`
}

// logPrivacyRequest leaves a trace of customer privacy requests. No customer data is
// stored, so there is nothing to export or erase.
func logPrivacyRequest(log *zap.Logger, topic string, body []byte) {
	if !isPrivacyTopic(topic) {
		return
	}
	var p privacyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Warn("privacy webhook payload unreadable", zap.Error(err))
		return
	}
	orders := len(p.OrdersRequested) + len(p.OrdersToRedact)
	log.Info("privacy request acknowledged, no customer data held",
		zap.Int64("customer_id", p.Customer.ID),
		zap.Int("orders", orders),
	)
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
