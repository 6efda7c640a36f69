package storefront

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexora-dev/storefront/internal/config"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the App configuration.
type Config struct {
	// APIURL is the backend base URL. Default: http://localhost:3001.
	APIURL string

	// Timeout bounds every backend request. Default: 10 seconds.
	Timeout time.Duration

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// Storage selects where the session token is persisted.
	Storage StorageConfig

	// Metrics registers client, bus and reconcile metrics when non-nil.
	Metrics prometheus.Registerer

	// Tracing wraps every API call in a client span.
	Tracing bool

	// TracerProvider overrides the global provider when Tracing is set.
	TracerProvider trace.TracerProvider

	// Transport is the base round tripper. Default: http.DefaultTransport.
	Transport http.RoundTripper

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// StorageConfig selects a session.Storage backend.
type StorageConfig struct {
	// Kind is memory, file, sqlite, postgres or redis. Default: memory.
	Kind string

	// Path is the token file (file) or database file (sqlite). Empty
	// means a file under the user config directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	// Table is the SQL table name. Default: storefront_kv.
	Table string

	// URL is the Redis URL.
	URL string

	// Prefix namespaces Redis keys. Default: "storefront:".
	Prefix string

	// TTL expires Redis keys. Zero keeps them.
	TTL time.Duration
}

// DefaultConfig returns a Config with in-memory token storage.
func DefaultConfig() Config {
	return Config{
		APIURL:  config.DefaultAPIURL,
		Timeout: 10 * time.Second,
		Storage: StorageConfig{Kind: config.StoreMemory},
	}
}

// FromFile converts a loaded storefront.json into an App Config. Metrics,
// tracing providers and the logger are left for the caller to set.
func FromFile(c *config.Config) Config {
	return Config{
		APIURL:    c.APIURL,
		Timeout:   c.TimeoutDuration(),
		UserAgent: c.UserAgent,
		Storage: StorageConfig{
			Kind:   c.TokenStore.Kind,
			Path:   c.TokenStore.Path,
			DSN:    c.TokenStore.DSN,
			Table:  c.TokenStore.Table,
			URL:    c.TokenStore.URL,
			Prefix: c.TokenStore.Prefix,
			TTL:    c.TokenTTL(),
		},
		Tracing: c.Telemetry.Tracing,
	}
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = config.DefaultAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = config.StoreMemory
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
