// Package woocommerce verifies WooCommerce webhook deliveries.
package woocommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// WebhookVerifier checks X-WC-Webhook-Signature, the base64 HMAC-SHA256 of
// the raw body keyed with the webhook secret
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the given webhook secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify compares in constant time
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return errors.New("missing signature")
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errors.New("signature is not base64")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), given) {
		return errors.New("signature mismatch")
	}
	return nil
}
