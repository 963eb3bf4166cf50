package webhook_handlers

import (
	"encoding/json"
	"fmt"

	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
)

// shopifyInventoryLevel keeps the numeric fields raw so numeric strings and
// integral floats are accepted the same way as in product payloads
type shopifyInventoryLevel struct {
	InventoryItemID json.RawMessage `json:"inventory_item_id"`
	LocationID      json.RawMessage `json:"location_id"`
	Available       json.RawMessage `json:"available"`
	UpdatedAt       string          `json:"updated_at"`
}

// ShopifyInventoryHandler turns inventory_levels/update webhooks into pending events
type ShopifyInventoryHandler struct {
	logger zerolog.Logger
}

// NewShopifyInventoryHandler creates a new Shopify inventory webhook handler
func NewShopifyInventoryHandler(logger zerolog.Logger) *ShopifyInventoryHandler {
	return &ShopifyInventoryHandler{
		logger: logger,
	}
}

// Platform returns the platform this handler serves
func (h *ShopifyInventoryHandler) Platform() domain.Platform {
	return domain.PlatformShopify
}

// CanHandle returns true if this handler can process the given topic
func (h *ShopifyInventoryHandler) CanHandle(topic string) bool {
	return topic == domain.PlatformShopify.Rules().RecognizedTopic
}

// BuildEvent extracts the inventory level fields from the payload.
// A null or non-numeric available count stays null.
func (h *ShopifyInventoryHandler) BuildEvent(event *domain.WebhookEvent) (*domain.PendingEvent, error) {
	if err := requireObject(event.Payload); err != nil {
		return nil, fmt.Errorf("failed to parse inventory level payload: %w", err)
	}
	var level shopifyInventoryLevel
	if err := json.Unmarshal(event.Payload, &level); err != nil {
		return nil, fmt.Errorf("failed to parse inventory level payload: %w", err)
	}

	itemID := parseInt(level.InventoryItemID)
	locationID := parseInt(level.LocationID)
	available := parseInt(level.Available)

	logEvent := h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Bool("verified", event.Verified)
	if itemID != nil {
		logEvent = logEvent.Int64("inventoryItemId", *itemID)
	}
	if available != nil {
		logEvent = logEvent.Int64("available", *available)
	}
	logEvent.Msg("Processing inventory level webhook event")

	return &domain.PendingEvent{
		Platform:        domain.PlatformShopify,
		Type:            domain.EventTypeInventoryUpdate,
		Store:           event.Shop,
		InventoryItemID: itemID,
		LocationID:      locationID,
		Quantity:        available,
	}, nil
}
