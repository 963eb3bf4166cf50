package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

type Config struct {
	Port           string
	LogLevel       string
	StoreBackend   string
	CodecMaxDepth  int
	AllowedOrigins []string
	SwaggerFile    string
	Identity       IdentityConfig
	Firestore      FirestoreConfig
	Mongo          MongoConfig
	RedisURL       string // REDIS_URL: optional fan-out of event notices
	Webhooks       WebhookConfig
}

// IdentityConfig controls how bearer tokens become tenant identities
type IdentityConfig struct {
	DefaultAudience string // IDENTITY_DEFAULT_AUDIENCE: aud value that never overrides the project
}

type FirestoreConfig struct {
	BaseURL    string
	ProjectID  string
	DatabaseID string
	Timeout    time.Duration
	// AdminToken is a static service bearer; empty means Google default credentials
	AdminToken string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// WebhookConfig holds signature settings. Verification runs only when
// RequireSignatures is set and the platform has a secret.
type WebhookConfig struct {
	RequireSignatures bool
	ShopifySecret     string
	WooCommerceSecret string
}

// Load reads configuration from the environment, with defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendFirestore)
	v.SetDefault("CODEC_MAX_DEPTH", 64)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SWAGGER_FILE", "./docs/swagger.json")
	v.SetDefault("FIRESTORE_BASE_URL", "https://firestore.googleapis.com/v1")
	v.SetDefault("FIRESTORE_DATABASE_ID", "(default)")
	v.SetDefault("FIRESTORE_TIMEOUT", "10s")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "pos_cloud_sync")
	v.SetDefault("MONGODB_TIMEOUT", "10s")
	v.SetDefault("WEBHOOK_REQUIRE_SIGNATURES", false)

	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetString("PORT"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		CodecMaxDepth:  v.GetInt("CODEC_MAX_DEPTH"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		SwaggerFile:    v.GetString("SWAGGER_FILE"),
		Identity: IdentityConfig{
			DefaultAudience: strings.TrimSpace(v.GetString("IDENTITY_DEFAULT_AUDIENCE")),
		},
		Firestore: FirestoreConfig{
			BaseURL:    v.GetString("FIRESTORE_BASE_URL"),
			ProjectID:  strings.TrimSpace(v.GetString("FIRESTORE_PROJECT_ID")),
			DatabaseID: v.GetString("FIRESTORE_DATABASE_ID"),
			Timeout:    v.GetDuration("FIRESTORE_TIMEOUT"),
			AdminToken: strings.TrimSpace(v.GetString("FIRESTORE_ADMIN_TOKEN")),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  v.GetDuration("MONGODB_TIMEOUT"),
		},
		RedisURL: strings.TrimSpace(v.GetString("REDIS_URL")),
		Webhooks: WebhookConfig{
			RequireSignatures: v.GetBool("WEBHOOK_REQUIRE_SIGNATURES"),
			ShopifySecret:     strings.TrimSpace(v.GetString("SHOPIFY_WEBHOOK_SECRET")),
			WooCommerceSecret: strings.TrimSpace(v.GetString("WOOCOMMERCE_WEBHOOK_SECRET")),
		},
	}

	switch cfg.StoreBackend {
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	case BackendMongo:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.CodecMaxDepth <= 0 {
		return nil, fmt.Errorf("CODEC_MAX_DEPTH must be positive")
	}
	if cfg.Firestore.Timeout <= 0 {
		return nil, fmt.Errorf("FIRESTORE_TIMEOUT must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
