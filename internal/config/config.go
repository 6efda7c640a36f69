package config

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexora-dev/storefront/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "storefront.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "storefront.yaml"

	// DefaultAPIURL is the default backend URL.
	DefaultAPIURL = "http://localhost:3001"

	// DefaultTimeout bounds every backend request.
	DefaultTimeout = "10s"

	// DefaultLogLevel is the default slog level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default slog handler.
	DefaultLogFormat = "text"

	// DefaultDevAddr is where "storefront dev-backend" listens.
	DefaultDevAddr = "127.0.0.1:3001"

	// DefaultMetricsAddr is where metrics are served when enabled.
	DefaultMetricsAddr = "127.0.0.1:9464"
)

// Token store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Environment variables that override the file.
const (
	EnvAPIURL     = "STOREFRONT_API_URL"
	EnvTokenStore = "STOREFRONT_TOKEN_STORE"
	EnvLogLevel   = "STOREFRONT_LOG_LEVEL"
)

// Config represents the complete storefront configuration.
type Config struct {
	// APIURL is the storefront backend base URL.
	APIURL string `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`

	// Timeout bounds each backend request (e.g., "10s").
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// UserAgent overrides the client's User-Agent header.
	UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`

	// TokenStore selects where the session token is persisted.
	TokenStore TokenStoreConfig `json:"tokenStore,omitempty" yaml:"tokenStore,omitempty"`

	// Log configures structured logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Telemetry configures metrics and tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`

	// DevBackend configures "storefront dev-backend".
	DevBackend DevBackendConfig `json:"devBackend,omitempty" yaml:"devBackend,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TokenStoreConfig selects and configures the session token store.
type TokenStoreConfig struct {
	// Kind is memory, file, sqlite, postgres or redis.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Path is the token file (file) or database file (sqlite).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// DSN is the PostgreSQL connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Table is the SQL table name.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// URL is the Redis URL (redis://host:6379/0).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Prefix namespaces Redis keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// TTL expires the Redis key (e.g., "720h"). Empty means no expiry.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// LogConfig configures slog.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig enables Prometheus metrics and OpenTelemetry spans.
type TelemetryConfig struct {
	Metrics     bool   `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	MetricsAddr string `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
	Tracing     bool   `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// DevBackendConfig configures the in-memory development backend.
type DevBackendConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Secret   string `json:"secret,omitempty" yaml:"secret,omitempty"`
	TokenTTL string `json:"tokenTtl,omitempty" yaml:"tokenTtl,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads storefront.json or storefront.yaml from dir.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName, "storefront.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E141").
		WithDetail("No storefront.json or storefront.yaml found in " + dir)
}

// LoadFile reads the configuration at path. The format follows the file
// extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E120").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E120").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check the YAML indentation and key names")
		}
	default:
		return nil, errors.New("E121").WithField(path)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Resolve returns the configuration for a CLI run: the file at path if
// given, otherwise a config file in dir or the user config directory,
// otherwise the defaults. Environment overrides are applied last.
func Resolve(path, dir string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = LoadFile(path)
	default:
		cfg, err = Load(dir)
		if errors.Code(err) == "E141" {
			cfg, err = Load(DefaultDir())
		}
		if errors.Code(err) == "E141" {
			cfg, err = New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is normally
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvTokenStore); ok && v != "" {
		c.TokenStore.Kind = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Save writes the config back to where it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the config to path as JSON or YAML, by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New("E120").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}

	// Token store
	c.TokenStore.Kind = strings.ToLower(c.TokenStore.Kind)
	if c.TokenStore.Kind == "" {
		c.TokenStore.Kind = StoreFile
	}

	// Logging
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.Telemetry.MetricsAddr == "" {
		c.Telemetry.MetricsAddr = DefaultMetricsAddr
	}
	if c.DevBackend.Addr == "" {
		c.DevBackend.Addr = DefaultDevAddr
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("E100").
			WithField("apiUrl").
			WithDetail(c.APIURL + " is not an absolute http(s) URL")
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return errors.New("E103").WithField("timeout")
	}

	switch c.TokenStore.Kind {
	case StoreMemory, StoreFile, StoreSQLite:
	case StorePostgres:
		if c.TokenStore.DSN == "" {
			return errors.New("E104").WithField("tokenStore.dsn")
		}
	case StoreRedis:
		if c.TokenStore.URL == "" {
			return errors.New("E104").WithField("tokenStore.url")
		}
	default:
		return errors.New("E101").
			WithField("tokenStore.kind").
			WithDetail(c.TokenStore.Kind + " is not a supported token store")
	}
	if c.TokenStore.TTL != "" {
		if d, err := time.ParseDuration(c.TokenStore.TTL); err != nil || d < 0 {
			return errors.New("E103").WithField("tokenStore.ttl")
		}
	}
	if c.DevBackend.TokenTTL != "" {
		if d, err := time.ParseDuration(c.DevBackend.TokenTTL); err != nil || d <= 0 {
			return errors.New("E103").WithField("devBackend.tokenTtl")
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E105").WithField("log.format")
	}
	return nil
}

// TimeoutDuration returns Timeout parsed, or the default on error.
func (c *Config) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultTimeout)
	return d
}

// TokenTTL returns the Redis key TTL, zero meaning none.
func (c *Config) TokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.TokenStore.TTL)
	return d
}

// DevTokenTTL returns the dev backend token lifetime, zero meaning its
// default.
func (c *Config) DevTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.DevBackend.TokenTTL)
	return d
}

// SlogLevel maps Log.Level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("E102").WithField("log.level")
	}
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "storefront")
}

// Exists checks if a configuration file exists in dir.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName, "storefront.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
