package domain

import "time"

// EventTypeInventoryUpdate is the only PendingEvent type produced today
const EventTypeInventoryUpdate = "inventory_update"

// WebhookEvent is an inbound webhook after topic and store headers are read
type WebhookEvent struct {
	Platform Platform
	Topic    string
	Shop     string
	Payload  []byte
	Verified bool
}

// PendingEvent is a normalized inventory change awaiting the desktop client.
// Processed is always false at creation; the consumer flips it.
type PendingEvent struct {
	ID              string
	Platform        Platform
	Type            string
	Store           string
	ProductID       *int64
	InventoryItemID *int64
	LocationID      *int64
	VariationIDs    []int64
	SKU             string
	Quantity        *int64
	ManageStock     *bool
	ProductType     string
	// NeedsFullFetch marks variable products delivered without inline
	// variation data; the consumer must re-fetch the product
	NeedsFullFetch bool
	ReceivedAt     time.Time
	Processed      bool
}

// ToRecord renders the event in the field layout the desktop client reads
func (e *PendingEvent) ToRecord() Record {
	rec := Record{
		"platform":   string(e.Platform),
		"type":       e.Type,
		"receivedAt": e.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"processed":  e.Processed,
	}
	if e.ID != "" {
		rec["id"] = e.ID
	}

	switch e.Platform {
	case PlatformShopify:
		rec["shop"] = e.Store
		rec["inventoryItemId"] = optionalInt(e.InventoryItemID)
		rec["locationId"] = optionalInt(e.LocationID)
		rec["available"] = optionalInt(e.Quantity)
	default:
		rec["store"] = e.Store
		rec["productId"] = optionalInt(e.ProductID)
		rec["sku"] = e.SKU
		rec["stockQuantity"] = optionalInt(e.Quantity)
		if e.ManageStock != nil {
			rec["manageStock"] = *e.ManageStock
		} else {
			rec["manageStock"] = nil
		}
		rec["productType"] = e.ProductType
		ids := make([]any, 0, len(e.VariationIDs))
		for _, id := range e.VariationIDs {
			ids = append(ids, id)
		}
		rec["variationIds"] = ids
		rec["needsFullFetch"] = e.NeedsFullFetch
	}
	return rec
}

func optionalInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// IngestResult is the acknowledgment returned to webhook senders
type IngestResult struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}

// EventNotice tells subscribers that a tenant's queue received an event
type EventNotice struct {
	TenantID   string    `json:"tenant_id"`
	Platform   Platform  `json:"platform"`
	Collection string    `json:"collection"`
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	ReceivedAt time.Time `json:"received_at"`
}
