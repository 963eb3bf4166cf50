package pubsub

import (
	"context"
	"fmt"
	"sync"

	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
)

// EventChannel represents a subscription channel
type EventChannel struct {
	ID     string
	Filter *EventFilter
	Events chan domain.EventNotice
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// EventFilter filters event notices. TenantID is required for delivery;
// an empty Platforms list matches every platform.
type EventFilter struct {
	TenantID  string
	Platforms []domain.Platform
}

// EventPubSub fans event notices out to in-process subscribers
type EventPubSub struct {
	mu       sync.RWMutex
	channels map[string]*EventChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
	buffer   int
}

// NewEventPubSub creates a new in-memory pub/sub
func NewEventPubSub(logger zerolog.Logger) *EventPubSub {
	return &EventPubSub{
		channels: make(map[string]*EventChannel),
		logger:   logger,
		buffer:   16,
	}
}

// Subscribe creates a subscription that ends when ctx is cancelled
func (ps *EventPubSub) Subscribe(ctx context.Context, filter *EventFilter) *EventChannel {
	ps.idMu.Lock()
	id := ps.generateID()
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &EventChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan domain.EventNotice, ps.buffer),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	logEvent := ps.logger.Info().Str("channelId", id)
	if filter != nil {
		logEvent = logEvent.Str("tenantId", filter.TenantID)
	}
	logEvent.Msg("Event subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *EventPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Event subscription removed")
}

// Publish delivers a notice to matching subscribers without blocking. Slow
// subscribers lose notices rather than stall ingestion.
func (ps *EventPubSub) Publish(_ context.Context, notice domain.EventNotice) error {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for _, channel := range ps.channels {
		if !matchesFilter(notice, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- notice:
			delivered++
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping notice")
		}
	}

	if delivered > 0 {
		ps.logger.Debug().
			Str("tenantId", notice.TenantID).
			Str("platform", notice.Platform.String()).
			Int("subscribers", delivered).
			Msg("Published event notice to subscribers")
	}
	return nil
}

// Subscribers returns the number of active subscriptions
func (ps *EventPubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}

func matchesFilter(notice domain.EventNotice, filter *EventFilter) bool {
	if filter == nil || filter.TenantID == "" || filter.TenantID != notice.TenantID {
		return false
	}
	if len(filter.Platforms) == 0 {
		return true
	}
	for _, p := range filter.Platforms {
		if p == notice.Platform {
			return true
		}
	}
	return false
}

func (ps *EventPubSub) generateID() string {
	ps.nextID++
	return fmt.Sprintf("channel-%d", ps.nextID)
}
