package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ConnectionHandler registers and lists the caller's store connections
type ConnectionHandler struct {
	connections *application.ConnectionService
	logger      zerolog.Logger
}

// NewConnectionHandler creates a connection HTTP handler
func NewConnectionHandler(connections *application.ConnectionService, logger zerolog.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		logger:      logger,
	}
}

// Create registers a store for the caller's tenant
//
//	@Summary	Register a store connection
//	@Tags		connections
//	@Param		body	body	application.CreateConnectionInput	true	"platform and store url"
//	@Success	201	{object}	domain.Connection
//	@Failure	400	{object}	errorResponse
//	@Failure	401	{object}	errorResponse
//	@Router		/api/v1/connections [post]
func (h *ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := domain.IdentityFromContext(r.Context())
	if !id.Established() {
		writeError(w, http.StatusUnauthorized, domain.ErrNoIdentity.Error())
		return
	}

	var input application.CreateConnectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conn, err := h.connections.CreateConnection(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownPlatform):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNoIdentity):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, domain.ErrQueryFailed):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			var remote *domain.RemoteError
			if errors.As(err, &remote) {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// List returns the caller's connections
//
//	@Summary	List store connections
//	@Tags		connections
//	@Success	200	{array}	domain.Connection
//	@Failure	401	{object}	errorResponse
//	@Router		/api/v1/connections [get]
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	id := domain.IdentityFromContext(r.Context())
	if !id.Established() {
		writeError(w, http.StatusUnauthorized, domain.ErrNoIdentity.Error())
		return
	}

	conns, err := h.connections.ListConnections(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conns)
}
