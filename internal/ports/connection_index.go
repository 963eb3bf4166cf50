package ports

import (
	"context"

	"pos-cloud-sync/internal/domain"
)

// ConnectionIndex looks up Connections across all tenants
type ConnectionIndex interface {
	// FindByStore returns connections with exactly this platform and store_url
	FindByStore(ctx context.Context, platform domain.Platform, storeURL string) ([]*domain.Connection, error)

	// ListByPlatform returns every connection of the platform
	ListByPlatform(ctx context.Context, platform domain.Platform) ([]*domain.Connection, error)
}
