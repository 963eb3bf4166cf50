package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"pos-cloud-sync/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisNotifier publishes notices on the tenant's Redis channel so other
// processes can react to new events
type RedisNotifier struct {
	client redis.UniversalClient
	logger zerolog.Logger
}

// NewRedisNotifier creates a notifier on an existing client
func NewRedisNotifier(client redis.UniversalClient, logger zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: logger,
	}
}

// NewRedisNotifierFromURL parses a redis:// url and creates a notifier
func NewRedisNotifierFromURL(url string, logger zerolog.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisNotifier(redis.NewClient(opts), logger), nil
}

// ChannelName returns the Redis channel for a tenant
func ChannelName(tenantID string) string {
	return "tenants:" + tenantID + ":events"
}

// Publish sends the notice as JSON
func (n *RedisNotifier) Publish(ctx context.Context, notice domain.EventNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	if err := n.client.Publish(ctx, ChannelName(notice.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// Close releases the client
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
