package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/infrastructure/pubsub"

	"github.com/rs/zerolog"
)

// EventsHandler streams event notices for the caller's tenant as
// server-sent events
type EventsHandler struct {
	events    *pubsub.EventPubSub
	heartbeat time.Duration
	logger    zerolog.Logger
}

// NewEventsHandler creates an SSE handler
func NewEventsHandler(events *pubsub.EventPubSub, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		events:    events,
		heartbeat: 25 * time.Second,
		logger:    logger,
	}
}

// Stream holds the connection open until the client goes away
//
//	@Summary	Stream event notices
//	@Tags		events
//	@Produce	text/event-stream
//	@Failure	401	{object}	errorResponse
//	@Router		/api/v1/events/stream [get]
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := domain.IdentityFromContext(r.Context())
	if !id.Established() {
		writeError(w, http.StatusUnauthorized, domain.ErrNoIdentity.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.events.Subscribe(r.Context(), &pubsub.EventFilter{TenantID: id.TenantID})
	defer h.events.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case notice, open := <-sub.Events:
			if !open {
				return
			}
			data, err := json.Marshal(notice)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to marshal event notice")
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", notice.EventID, notice.Type, data)
			flusher.Flush()
		}
	}
}
