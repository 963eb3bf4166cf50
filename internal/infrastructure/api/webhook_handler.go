package api

import (
	"errors"
	"io"
	"net/http"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// WebhookHandler serves /webhooks/{platform}
type WebhookHandler struct {
	ingestion *application.IngestionService
	logger    zerolog.Logger
}

// NewWebhookHandler creates a webhook HTTP handler
func NewWebhookHandler(ingestion *application.IngestionService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// Receive handles a webhook delivery. Anything short of an internal failure
// is acknowledged with 200 so the sender does not retry.
//
//	@Summary	Receive a platform webhook
//	@Tags		webhooks
//	@Param		platform	path	string	true	"shopify or woocommerce"
//	@Success	200	{object}	domain.IngestResult
//	@Failure	401	{object}	errorResponse
//	@Failure	413	{object}	errorResponse
//	@Failure	500	{object}	domain.IngestResult
//	@Router		/webhooks/{platform} [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	platform, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown platform")
		return
	}

	defer r.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(payload) > maxWebhookBody {
		h.logger.Warn().
			Str("platform", platform.String()).
			Int("limit", maxWebhookBody).
			Msg("Rejected oversized webhook payload")
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	result, err := h.ingestion.Handle(r.Context(), platform, payload, r.Header)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, domain.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid signature")
	case errors.Is(err, domain.ErrMalformedPayload):
		writeError(w, http.StatusInternalServerError, "invalid JSON payload")
	default:
		writeJSON(w, http.StatusInternalServerError, result)
	}
}

// Status is the liveness payload for GET on a webhook path
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	platform, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown platform")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"platform": platform.String(),
	})
}
