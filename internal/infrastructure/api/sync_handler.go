package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SyncHandler exposes push and pull over HTTP for the caller's tenant
type SyncHandler struct {
	sync   *application.SyncService
	logger zerolog.Logger
}

// NewSyncHandler creates a sync HTTP handler
func NewSyncHandler(sync *application.SyncService, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// Push upserts the JSON object body into the collection
//
//	@Summary	Push a record
//	@Tags		sync
//	@Param		collection	path	string	true	"collection name"
//	@Success	200	{object}	domain.PushResult
//	@Failure	401	{object}	errorResponse
//	@Failure	502	{object}	errorResponse
//	@Router		/api/v1/sync/{collection} [put]
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	id := domain.IdentityFromContext(r.Context())
	if !id.Established() {
		writeError(w, http.StatusUnauthorized, domain.ErrNoIdentity.Error())
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var rec domain.Record
	if err := decoder.Decode(&rec); err != nil || rec == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	result, err := h.sync.Push(r.Context(), id, chi.URLParam(r, "collection"), rec)
	if err != nil {
		if errors.Is(err, domain.ErrNoIdentity) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Pull lists records changed after the since query parameter
//
//	@Summary	Pull changed records
//	@Tags		sync
//	@Param		collection	path	string	true	"collection name"
//	@Param		since		query	int		false	"epoch milliseconds"
//	@Success	200	{array}	object
//	@Failure	502	{object}	errorResponse
//	@Router		/api/v1/sync/{collection} [get]
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	var since *int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be epoch milliseconds")
			return
		}
		since = &v
	}

	records, err := h.sync.Pull(r.Context(), domain.IdentityFromContext(r.Context()), chi.URLParam(r, "collection"), since)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func statusFor(err error) int {
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrQueryFailed), errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrDepthExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
