package webhook_handlers

import (
	"testing"

	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestShopifyInventoryHandler(t *testing.T) {
	h := NewShopifyInventoryHandler(zerolog.Nop())

	require.Equal(t, domain.PlatformShopify, h.Platform())
	require.True(t, h.CanHandle("inventory_levels/update"))
	require.False(t, h.CanHandle("products/update"))

	t.Run("extracts inventory fields", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Topic:   "inventory_levels/update",
			Shop:    "a.myshopify.com",
			Payload: []byte(`{"inventory_item_id":111,"location_id":222,"available":5,"updated_at":"2024-01-01T00:00:00Z"}`),
		})
		require.NoError(t, err)
		require.Equal(t, domain.EventTypeInventoryUpdate, ev.Type)
		require.Equal(t, "a.myshopify.com", ev.Store)
		require.Equal(t, int64(111), *ev.InventoryItemID)
		require.Equal(t, int64(222), *ev.LocationID)
		require.Equal(t, int64(5), *ev.Quantity)
		require.False(t, ev.Processed)
	})

	t.Run("null available stays null", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Shop:    "a.myshopify.com",
			Payload: []byte(`{"inventory_item_id":111,"location_id":222,"available":null}`),
		})
		require.NoError(t, err)
		require.Nil(t, ev.Quantity)
		require.Nil(t, ev.ToRecord()["available"])
	})

	t.Run("accepts numeric strings and integral floats", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Shop:    "a.myshopify.com",
			Payload: []byte(`{"inventory_item_id":"111","location_id":222.0,"available":5.0}`),
		})
		require.NoError(t, err)
		require.Equal(t, int64(111), *ev.InventoryItemID)
		require.Equal(t, int64(222), *ev.LocationID)
		require.Equal(t, int64(5), *ev.Quantity)
	})

	t.Run("non numeric available is null", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Shop:    "a.myshopify.com",
			Payload: []byte(`{"inventory_item_id":111,"available":"lots"}`),
		})
		require.NoError(t, err)
		require.Nil(t, ev.Quantity)
		require.Nil(t, ev.LocationID)
	})

	t.Run("rejects non object payload", func(t *testing.T) {
		for _, body := range []string{`[1,2]`, `null`, `42`} {
			_, err := h.BuildEvent(&domain.WebhookEvent{Payload: []byte(body)})
			require.Error(t, err, body)
		}
	})
}

func TestWooCommerceProductHandler(t *testing.T) {
	h := NewWooCommerceProductHandler(zerolog.Nop())

	require.Equal(t, domain.PlatformWooCommerce, h.Platform())
	require.True(t, h.CanHandle("product.updated"))
	require.False(t, h.CanHandle("product.created"))

	t.Run("simple product", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Shop:    "https://shop.example.com",
			Payload: []byte(`{"id":42,"sku":"ABC","type":"simple","stock_quantity":7,"manage_stock":true,"variations":[]}`),
		})
		require.NoError(t, err)
		require.Equal(t, int64(42), *ev.ProductID)
		require.Equal(t, "ABC", ev.SKU)
		require.Equal(t, int64(7), *ev.Quantity)
		require.True(t, *ev.ManageStock)
		require.False(t, ev.NeedsFullFetch)
		require.Empty(t, ev.VariationIDs)
	})

	t.Run("variable product with id-only variations needs full fetch", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Payload: []byte(`{"id":42,"type":"variable","stock_quantity":null,"manage_stock":false,"variations":[101,102]}`),
		})
		require.NoError(t, err)
		require.True(t, ev.NeedsFullFetch)
		require.Equal(t, []int64{101, 102}, ev.VariationIDs)
		require.Nil(t, ev.Quantity)
	})

	t.Run("variable product with inline variations", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Payload: []byte(`{"id":42,"type":"variable","variations":[{"id":101,"stock_quantity":3}]}`),
		})
		require.NoError(t, err)
		require.False(t, ev.NeedsFullFetch)
		require.Equal(t, []int64{101}, ev.VariationIDs)
	})

	t.Run("composite product is flagged", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Payload: []byte(`{"id":"43","type":"composite"}`),
		})
		require.NoError(t, err)
		require.True(t, ev.NeedsFullFetch)
		require.Equal(t, int64(43), *ev.ProductID)
	})

	t.Run("rejects non object payload", func(t *testing.T) {
		_, err := h.BuildEvent(&domain.WebhookEvent{Payload: []byte(`null`)})
		require.Error(t, err)
	})

	t.Run("string quantities and parent stock management", func(t *testing.T) {
		ev, err := h.BuildEvent(&domain.WebhookEvent{
			Payload: []byte(`{"id":44,"type":"simple","stock_quantity":"12","manage_stock":"parent"}`),
		})
		require.NoError(t, err)
		require.Equal(t, int64(12), *ev.Quantity)
		require.True(t, *ev.ManageStock)
	})
}

func TestParseInt(t *testing.T) {
	require.Nil(t, parseInt(nil))
	require.Nil(t, parseInt([]byte(`null`)))
	require.Nil(t, parseInt([]byte(`"abc"`)))
	require.Nil(t, parseInt([]byte(`1.5`)))
	require.Equal(t, int64(3), *parseInt([]byte(`3.0`)))
	require.Equal(t, int64(-9), *parseInt([]byte(`" -9 "`)))
}
