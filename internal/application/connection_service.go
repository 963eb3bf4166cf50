package application

import (
	"context"
	"fmt"
	"strings"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ConnectionService registers external stores under the caller's tenant
type ConnectionService struct {
	store  ports.RecordStore
	logger zerolog.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(store ports.RecordStore, logger zerolog.Logger) *ConnectionService {
	return &ConnectionService{
		store:  store,
		logger: logger,
	}
}

// CreateConnectionInput represents input for registering a store
type CreateConnectionInput struct {
	Platform string `json:"platform"`
	StoreURL string `json:"store_url"`
}

// NormalizeStoreURL produces the stored form of a store url. Shopify stores
// are keyed by their bare shop domain, which is what the shop-domain header
// carries; other platforms keep an https:// url.
func NormalizeStoreURL(platform domain.Platform, raw string) string {
	host := domain.StoreHost(raw)
	if host == "" {
		return ""
	}
	if platform == domain.PlatformShopify {
		return host
	}
	return "https://" + host
}

// CreateConnection registers a store for the identity's tenant. Registering
// the same store twice returns the existing connection.
func (s *ConnectionService) CreateConnection(ctx context.Context, id domain.Identity, input CreateConnectionInput) (*domain.Connection, error) {
	if !id.Established() {
		return nil, domain.ErrNoIdentity
	}

	platform, err := domain.ParsePlatform(input.Platform)
	if err != nil {
		return nil, err
	}
	storeURL := NormalizeStoreURL(platform, input.StoreURL)
	if storeURL == "" {
		return nil, fmt.Errorf("invalid store url %q", input.StoreURL)
	}

	connID := domain.ConnectionID(platform, storeURL)
	existing, err := s.ListConnections(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing connection: %w", err)
	}
	for _, c := range existing {
		if c.ID == connID {
			s.logger.Info().
				Str("tenantId", id.TenantID).
				Str("platform", platform.String()).
				Str("storeUrl", storeURL).
				Msg("Connection already exists, returning existing one")
			return c, nil
		}
	}

	conn := &domain.Connection{
		ID:       connID,
		TenantID: id.TenantID,
		Platform: platform,
		StoreURL: storeURL,
	}
	if _, err := s.store.Push(ctx, id, domain.ConnectionsCollection, conn.ToRecord()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create connection")
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.logger.Info().
		Str("tenantId", id.TenantID).
		Str("platform", platform.String()).
		Str("storeUrl", storeURL).
		Msg("Created new connection")

	return conn, nil
}

// ListConnections returns every connection of the identity's tenant
func (s *ConnectionService) ListConnections(ctx context.Context, id domain.Identity) ([]*domain.Connection, error) {
	records, err := s.store.Pull(ctx, id, domain.ConnectionsCollection, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	out := make([]*domain.Connection, 0, len(records))
	for _, rec := range records {
		c := domain.ConnectionFromRecord(id.TenantID, rec)
		if strings.TrimSpace(c.StoreURL) == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
