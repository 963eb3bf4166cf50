package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform identifies an external e-commerce platform that sends webhooks
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
)

// PlatformRules holds the per-platform differences of the ingestion path
type PlatformRules struct {
	TopicHeader     string
	StoreHeader     string
	SignatureHeader string
	// RecognizedTopic is the only topic that produces a PendingEvent
	RecognizedTopic string
	// ExactStoreMatch selects equality matching on the store header;
	// otherwise the header's hostname is substring-matched against stored urls
	ExactStoreMatch bool
	EventCollection string
}

var platformRules = map[Platform]PlatformRules{
	PlatformShopify: {
		TopicHeader:     "X-Shopify-Topic",
		StoreHeader:     "X-Shopify-Shop-Domain",
		SignatureHeader: "X-Shopify-Hmac-Sha256",
		RecognizedTopic: "inventory_levels/update",
		ExactStoreMatch: true,
		EventCollection: "shopify_events",
	},
	PlatformWooCommerce: {
		TopicHeader:     "X-WC-Webhook-Topic",
		StoreHeader:     "X-WC-Webhook-Source",
		SignatureHeader: "X-WC-Webhook-Signature",
		RecognizedTopic: "product.updated",
		ExactStoreMatch: false,
		EventCollection: "woocommerce_events",
	},
}

// ParsePlatform validates a platform name
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := platformRules[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// Rules returns the ingestion rules of the platform
func (p Platform) Rules() PlatformRules {
	return platformRules[p]
}

func (p Platform) String() string {
	return string(p)
}

// MatchesStore reports whether an inbound store identifier refers to the
// stored connection url under this platform's resolution strategy
func (p Platform) MatchesStore(storedURL, inbound string) bool {
	if storedURL == "" || inbound == "" {
		return false
	}
	if p.Rules().ExactStoreMatch {
		return storedURL == inbound
	}
	host := StoreHost(inbound)
	stored := StoreHost(storedURL)
	if host == "" || stored == "" {
		return false
	}
	// the header carries a full url; the stored value may be a bare domain
	return strings.Contains(stored, host)
}

// StoreHost reduces a full url or bare domain to a lower-case hostname
func StoreHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
