package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/application/webhook_handlers"
	"pos-cloud-sync/internal/config"
	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/identity"
	apiinfra "pos-cloud-sync/internal/infrastructure/api"
	"pos-cloud-sync/internal/infrastructure/firestore"
	"pos-cloud-sync/internal/infrastructure/metrics"
	"pos-cloud-sync/internal/infrastructure/pubsub"
	"pos-cloud-sync/internal/infrastructure/repository"
	shopifyinfra "pos-cloud-sync/internal/infrastructure/shopify"
	"pos-cloud-sync/internal/infrastructure/woocommerce"
	"pos-cloud-sync/internal/ports"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const datastoreScope = "https://www.googleapis.com/auth/datastore"

// stores groups the port implementations of one backend
type stores struct {
	records ports.RecordStore
	index   ports.ConnectionIndex
	queue   ports.EventQueue
	close   func()
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to initialize store backend")
	}
	defer backend.close()

	recorder := metrics.NewRecorder(nil)

	// Notices go to SSE subscribers and, when configured, to Redis
	events := pubsub.NewEventPubSub(logger)
	var notifier ports.EventNotifier = events
	if cfg.RedisURL != "" {
		redisNotifier, err := pubsub.NewRedisNotifierFromURL(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Redis notifier")
		}
		defer redisNotifier.Close()
		notifier = pubsub.MultiNotifier{events, redisNotifier}
	}

	// Initialize webhook dispatcher and register handlers
	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewShopifyInventoryHandler(logger))
	dispatcher.RegisterHandler(webhook_handlers.NewWooCommerceProductHandler(logger))

	ingestion := application.NewIngestionService(backend.index, backend.queue, notifier, dispatcher, recorder, logger)
	if cfg.Webhooks.RequireSignatures {
		if cfg.Webhooks.ShopifySecret != "" {
			ingestion.RequireSignature(domain.PlatformShopify, shopifyinfra.NewWebhookVerifier(cfg.Webhooks.ShopifySecret))
		}
		if cfg.Webhooks.WooCommerceSecret != "" {
			ingestion.RequireSignature(domain.PlatformWooCommerce, woocommerce.NewWebhookVerifier(cfg.Webhooks.WooCommerceSecret))
		}
	}

	router := apiinfra.NewRouter(apiinfra.RouterConfig{
		Ingestion:      ingestion,
		Sync:           application.NewSyncService(backend.records, recorder, logger),
		Connections:    application.NewConnectionService(backend.records, logger),
		Events:         events,
		Metrics:        recorder.Handler(),
		Resolver:       identity.NewResolver(cfg.Identity.DefaultAudience),
		DefaultProject: cfg.Firestore.ProjectID,
		SwaggerFile:    cfg.SwaggerFile,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Timeout, logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to ensure MongoDB indexes")
		}
		return &stores{
			records: repo,
			index:   repo,
			queue:   repo,
			close:   func() { client.Disconnect(context.Background()) },
		}, nil

	default:
		client := firestore.NewClient(firestore.Options{
			BaseURL:    cfg.Firestore.BaseURL,
			ProjectID:  cfg.Firestore.ProjectID,
			DatabaseID: cfg.Firestore.DatabaseID,
			Timeout:    cfg.Firestore.Timeout,
			MaxDepth:   cfg.CodecMaxDepth,
		}, logger)

		tokens, err := adminTokenSource(ctx, cfg.Firestore.AdminToken)
		if err != nil {
			return nil, err
		}
		admin := firestore.NewAdminStore(client, tokens, cfg.Firestore.ProjectID)
		return &stores{
			records: client,
			index:   admin,
			queue:   admin,
			close:   func() {},
		}, nil
	}
}

// adminTokenSource prefers a static token and falls back to Google
// application default credentials
func adminTokenSource(ctx context.Context, static string) (oauth2.TokenSource, error) {
	if static != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: static}), nil
	}
	return google.DefaultTokenSource(ctx, datastoreScope)
}
