// Package api wires the HTTP surface: webhook ingestion, the sync gateway,
// connection management, the event stream, and operational endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/identity"
	"pos-cloud-sync/internal/infrastructure/middleware"
	"pos-cloud-sync/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig holds everything the router serves
type RouterConfig struct {
	Ingestion      *application.IngestionService
	Sync           *application.SyncService
	Connections    *application.ConnectionService
	Events         *pubsub.EventPubSub
	Metrics        http.Handler
	Resolver       identity.Resolver
	DefaultProject string
	SwaggerFile    string
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds the chi router
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	swaggerFile := cfg.SwaggerFile
	if swaggerFile == "" {
		swaggerFile = "./docs/swagger.json"
	}
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, swaggerFile)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	webhooks := NewWebhookHandler(cfg.Ingestion, logger)
	r.Post("/webhooks/{platform}", webhooks.Receive)
	r.Get("/webhooks/{platform}", webhooks.Status)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.IdentityMiddleware(cfg.Resolver, cfg.DefaultProject, logger))

		syncHandler := NewSyncHandler(cfg.Sync, logger)
		r.Put("/sync/{collection}", syncHandler.Push)
		r.Get("/sync/{collection}", syncHandler.Pull)

		connections := NewConnectionHandler(cfg.Connections, logger)
		r.Post("/connections", connections.Create)
		r.Get("/connections", connections.List)

		if cfg.Events != nil {
			r.Get("/events/stream", NewEventsHandler(cfg.Events, logger).Stream)
		}
	})

	return r
}
