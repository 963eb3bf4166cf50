package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifier(t *testing.T) {
	payload := []byte(`{"inventory_item_id":1,"available":2}`)
	v := NewWebhookVerifier("shpss_secret")

	require.NoError(t, v.Verify(payload, sign("shpss_secret", payload)))
	require.Error(t, v.Verify(payload, sign("other", payload)))
	require.Error(t, v.Verify(payload, ""))
	require.Error(t, v.Verify([]byte(`{"tampered":true}`), sign("shpss_secret", payload)))
}
