package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// VerifyOAuthHMAC verifies Shopify's OAuth callback HMAC.
// Shopify computes the HMAC over the querystring (excluding hmac and signature) in lexicographical order.
func VerifyOAuthHMAC(values url.Values, apiSecret string) bool {
	given := values.Get("hmac")
	if given == "" || apiSecret == "" {
		return false
	}

	var parts []string
	for _, k := range sortedKeys(values, "hmac", "signature") {
		for _, v := range values[k] {
			parts = append(parts, k+"="+strings.ReplaceAll(v, "&", "%26"))
		}
	}
	return equalHex(sign(strings.Join(parts, "&"), apiSecret), given)
}

// VerifyProxySignature verifies an app proxy request.
// The message is every `key=value` pair except signature, sorted by key, with
// repeated values joined by commas and pairs concatenated without a separator.
func VerifyProxySignature(values url.Values, apiSecret string) bool {
	given := values.Get("signature")
	if given == "" || apiSecret == "" {
		return false
	}

	var b strings.Builder
	for _, k := range sortedKeys(values, "signature") {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(values[k], ","))
	}
	return equalHex(sign(b.String(), apiSecret), given)
}

func sortedKeys(values url.Values, skip ...string) []string {
	keys := make([]string, 0, len(values))
outer:
	for k := range values {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sign(msg, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func equalHex(expected, given string) bool {
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(given)))
}
