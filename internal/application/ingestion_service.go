package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/ports"

	"github.com/rs/zerolog"
)

// SignatureVerifier checks a webhook body against its signature header
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// IngestionService resolves inbound webhooks to the owning tenant and queues
// a PendingEvent for that tenant's desktop client.
//
// Finding the tenant and writing the event are not transactional: a failure
// between the two writes nothing.
type IngestionService struct {
	index      ports.ConnectionIndex
	queue      ports.EventQueue
	notifier   ports.EventNotifier
	dispatcher *WebhookDispatcher
	verifiers  map[domain.Platform]SignatureVerifier
	metrics    ports.MetricsRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewIngestionService creates an ingestion service. notifier and metrics may be nil.
func NewIngestionService(
	index ports.ConnectionIndex,
	queue ports.EventQueue,
	notifier ports.EventNotifier,
	dispatcher *WebhookDispatcher,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
) *IngestionService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &IngestionService{
		index:      index,
		queue:      queue,
		notifier:   notifier,
		dispatcher: dispatcher,
		verifiers:  make(map[domain.Platform]SignatureVerifier),
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// RequireSignature enforces signature verification for a platform. Without
// it, signatures are not checked.
func (s *IngestionService) RequireSignature(platform domain.Platform, verifier SignatureVerifier) {
	s.verifiers[platform] = verifier
	s.logger.Info().Str("platform", platform.String()).Msg("Webhook signature verification enabled")
}

// Handle processes one webhook delivery.
//
// A body that is not valid JSON returns domain.ErrMalformedPayload and
// writes nothing. Unrecognized topics are acknowledged without processing
// whatever the body's shape, as are unknown stores. Lookup or append failures return an error alongside a
// received-but-unprocessed result.
func (s *IngestionService) Handle(ctx context.Context, platform domain.Platform, payload []byte, headers http.Header) (domain.IngestResult, error) {
	rules := platform.Rules()
	if rules.TopicHeader == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, platform)
	}

	if !json.Valid(payload) {
		s.metrics.WebhookOutcome(platform, OutcomeMalformed)
		s.logger.Warn().Str("platform", platform.String()).Int("bytes", len(payload)).Msg("Rejected malformed webhook payload")
		return domain.IngestResult{}, fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedPayload)
	}

	verified := false
	if verifier, ok := s.verifiers[platform]; ok {
		if err := verifier.Verify(payload, headers.Get(rules.SignatureHeader)); err != nil {
			s.metrics.WebhookOutcome(platform, OutcomeInvalidSignature)
			s.logger.Warn().Err(err).Str("platform", platform.String()).Msg("Webhook signature verification failed")
			return domain.IngestResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		verified = true
	}

	topic := headers.Get(rules.TopicHeader)
	store := headers.Get(rules.StoreHeader)
	ack := domain.IngestResult{Received: true}

	logger := s.logger.With().
		Str("platform", platform.String()).
		Str("topic", topic).
		Str("store", store).
		Logger()

	handler := s.dispatcher.HandlerFor(platform, topic)
	if handler == nil {
		s.metrics.WebhookOutcome(platform, OutcomeIgnoredTopic)
		logger.Debug().Msg("Acknowledged webhook with unhandled topic")
		return ack, nil
	}

	conn, err := s.resolveConnection(ctx, platform, store)
	if err != nil {
		s.metrics.WebhookOutcome(platform, OutcomeFailed)
		logger.Error().Err(err).Msg("Failed to resolve tenant for webhook")
		return ack, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if conn == nil {
		s.metrics.WebhookOutcome(platform, OutcomeUnmatchedStore)
		logger.Info().Msg("No connection owns this store, webhook acknowledged")
		return ack, nil
	}
	logger = logger.With().Str("tenantId", conn.TenantID).Logger()

	event, err := handler.BuildEvent(&domain.WebhookEvent{
		Platform: platform,
		Topic:    topic,
		Shop:     store,
		Payload:  payload,
		Verified: verified,
	})
	if err != nil {
		s.metrics.WebhookOutcome(platform, OutcomeFailed)
		logger.Error().Err(err).Msg("Failed to build pending event")
		return ack, fmt.Errorf("failed to build pending event: %w", err)
	}
	event.ReceivedAt = s.now().UTC()
	event.Processed = false

	eventID, err := s.queue.AppendEvent(ctx, conn.TenantID, rules.EventCollection, event.ToRecord())
	if err != nil {
		s.metrics.WebhookOutcome(platform, OutcomeFailed)
		logger.Error().Err(err).Msg("Failed to append pending event")
		return ack, fmt.Errorf("failed to append pending event: %w", err)
	}
	event.ID = eventID

	s.notify(ctx, logger, conn.TenantID, rules.EventCollection, event)

	s.metrics.WebhookOutcome(platform, OutcomeProcessed)
	logger.Info().Str("eventId", eventID).Msg("Queued pending event")
	return domain.IngestResult{Received: true, Processed: true}, nil
}

// resolveConnection returns the first connection owning store, or nil.
// Hostname matching prefers an exact host over a substring hit. Duplicate
// registrations of the same store resolve to whichever the index
// returns first.
func (s *IngestionService) resolveConnection(ctx context.Context, platform domain.Platform, store string) (*domain.Connection, error) {
	if store == "" {
		return nil, nil
	}

	var (
		candidates []*domain.Connection
		err        error
	)
	if platform.Rules().ExactStoreMatch {
		candidates, err = s.index.FindByStore(ctx, platform, store)
	} else {
		candidates, err = s.index.ListByPlatform(ctx, platform)
	}
	if err != nil {
		return nil, err
	}

	if !platform.Rules().ExactStoreMatch {
		host := domain.StoreHost(store)
		for _, c := range candidates {
			if host != "" && c.TenantID != "" && domain.StoreHost(c.StoreURL) == host {
				return c, nil
			}
		}
	}
	for _, c := range candidates {
		if c.TenantID != "" && platform.MatchesStore(c.StoreURL, store) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *IngestionService) notify(ctx context.Context, logger zerolog.Logger, tenantID, collection string, event *domain.PendingEvent) {
	if s.notifier == nil {
		return
	}
	notice := domain.EventNotice{
		TenantID:   tenantID,
		Platform:   event.Platform,
		Collection: collection,
		EventID:    event.ID,
		Type:       event.Type,
		ReceivedAt: event.ReceivedAt,
	}
	if err := s.notifier.Publish(ctx, notice); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish event notice")
	}
}

type nopMetrics struct{}

func (nopMetrics) WebhookOutcome(domain.Platform, string) {}
func (nopMetrics) StoreOperation(string, string)          {}
