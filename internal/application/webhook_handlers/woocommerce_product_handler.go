package webhook_handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
)

// Product types whose stock lives on child items
var parentProductTypes = map[string]bool{
	"variable":  true,
	"composite": true,
}

type wooProduct struct {
	ID            json.RawMessage   `json:"id"`
	SKU           string            `json:"sku"`
	Type          string            `json:"type"`
	StockQuantity json.RawMessage   `json:"stock_quantity"`
	ManageStock   json.RawMessage   `json:"manage_stock"`
	Variations    []json.RawMessage `json:"variations"`
}

// WooCommerceProductHandler turns product.updated webhooks into pending events
type WooCommerceProductHandler struct {
	logger zerolog.Logger
}

// NewWooCommerceProductHandler creates a new WooCommerce product webhook handler
func NewWooCommerceProductHandler(logger zerolog.Logger) *WooCommerceProductHandler {
	return &WooCommerceProductHandler{
		logger: logger,
	}
}

// Platform returns the platform this handler serves
func (h *WooCommerceProductHandler) Platform() domain.Platform {
	return domain.PlatformWooCommerce
}

// CanHandle returns true if this handler can process the given topic
func (h *WooCommerceProductHandler) CanHandle(topic string) bool {
	return topic == domain.PlatformWooCommerce.Rules().RecognizedTopic
}

// BuildEvent extracts stock fields from a product payload. WooCommerce sends
// variations either as bare ids or as full objects; a variable or composite
// product with no variation objects is flagged for a full re-fetch.
func (h *WooCommerceProductHandler) BuildEvent(event *domain.WebhookEvent) (*domain.PendingEvent, error) {
	if err := requireObject(event.Payload); err != nil {
		return nil, fmt.Errorf("failed to parse product payload: %w", err)
	}
	var product wooProduct
	if err := json.Unmarshal(event.Payload, &product); err != nil {
		return nil, fmt.Errorf("failed to parse product payload: %w", err)
	}

	variationIDs := make([]int64, 0, len(product.Variations))
	inline := false
	for _, raw := range product.Variations {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			inline = true
			var v struct {
				ID json.RawMessage `json:"id"`
			}
			if err := json.Unmarshal(raw, &v); err == nil {
				if id := parseInt(v.ID); id != nil {
					variationIDs = append(variationIDs, *id)
				}
			}
			continue
		}
		if id := parseInt(raw); id != nil {
			variationIDs = append(variationIDs, *id)
		}
	}

	productType := strings.ToLower(product.Type)
	pending := &domain.PendingEvent{
		Platform:       domain.PlatformWooCommerce,
		Type:           domain.EventTypeInventoryUpdate,
		Store:          event.Shop,
		ProductID:      parseInt(product.ID),
		SKU:            product.SKU,
		Quantity:       parseInt(product.StockQuantity),
		ManageStock:    parseManageStock(product.ManageStock),
		ProductType:    product.Type,
		VariationIDs:   variationIDs,
		NeedsFullFetch: parentProductTypes[productType] && !inline,
	}

	logEvent := h.logger.Info().
		Str("topic", event.Topic).
		Str("store", event.Shop).
		Bool("verified", event.Verified).
		Str("sku", pending.SKU).
		Str("productType", pending.ProductType).
		Bool("needsFullFetch", pending.NeedsFullFetch)
	if pending.ProductID != nil {
		logEvent = logEvent.Int64("productId", *pending.ProductID)
	}
	logEvent.Msg("Processing product webhook event")

	return pending, nil
}

// parseInt accepts a JSON number or a numeric string. Anything else is nil.
// requireObject rejects payloads that are valid JSON but not an object
func requireObject(payload []byte) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return errors.New("payload is not a JSON object")
	}
	return nil
}

func parseInt(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int64(f)) {
		n := int64(f)
		return &n
	}
	return nil
}

// parseManageStock maps true/false and the "parent" marker used by variations.
// "parent" means stock is managed, at the parent level.
func parseManageStock(raw json.RawMessage) *bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		managed := s == "parent" || strings.EqualFold(s, "yes") || strings.EqualFold(s, "true")
		return &managed
	}
	return nil
}
