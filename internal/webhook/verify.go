package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifyShopifyWebhook checks X-Shopify-Hmac-Sha256, which is base64(HMAC_SHA256(secret, body)).
// The header is decoded and compared as raw MAC bytes.
func VerifyShopifyWebhook(body []byte, hmacHeader string, secret string) bool {
	if hmacHeader == "" || secret == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(hmacHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}
