package application

import (
	"sync"

	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler turns one platform's recognized webhook topic into a PendingEvent
type WebhookHandler interface {
	Platform() domain.Platform
	CanHandle(topic string) bool
	BuildEvent(event *domain.WebhookEvent) (*domain.PendingEvent, error)
}

// WebhookDispatcher routes webhook topics to registered handlers
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)

	d.logger.Debug().
		Str("platform", handler.Platform().String()).
		Msg("Registered webhook handler")
}

// HandlerFor returns the handler for a platform topic, or nil when the topic
// is not acted upon
func (d *WebhookDispatcher) HandlerFor(platform domain.Platform, topic string) WebhookHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		if h.Platform() == platform && h.CanHandle(topic) {
			return h
		}
	}
	return nil
}
