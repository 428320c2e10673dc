package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPrefix = "STOREFRONT_"

	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultCatalogTimeout      = 10 * time.Second
	defaultBackend             = BackendMemory
	defaultStateTTL            = 7 * 24 * time.Hour
	defaultTokenTTL            = 24 * time.Hour
	defaultCleanupInterval     = 10 * time.Minute
	defaultKeyPrefix           = "storefront:"
	defaultFirestoreCollection = "storefront_state"
	defaultAdminDomain         = "@intimetec.com"
	defaultTokenIssuer         = "storefront"
	defaultEnvironment         = "local"
)

// Persistence backends.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config captures runtime configuration grouped by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Catalog     CatalogConfig
	Persistence PersistenceConfig
	Redis       RedisConfig
	Firestore   FirestoreConfig
	Auth        AuthConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig points at the remote product, user and review APIs.
type CatalogConfig struct {
	ProductURL  string
	UserURL     string
	ReviewURL   string
	Timeout     time.Duration
	FixtureFile string
}

// PersistenceConfig selects the key/value backend and its expiry policy.
type PersistenceConfig struct {
	Backend         string
	TTL             time.Duration
	TokenTTL        time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FirestoreConfig holds Firestore settings.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// AuthConfig controls session tokens and the admin rule.
type AuthConfig struct {
	AdminDomain string
	TokenSecret string
	TokenIssuer string
}

// ValidationError is returned when required fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// EnvironmentValues returns the merged key/value map using Load's precedence
// (dotenv < process environment < explicit map).
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(dotEnv))
	for k, v := range dotEnv {
		values[k] = v
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[key] = value
		}
	}
	for k, v := range options.envMap {
		values[k] = v
	}
	return values, nil
}

// Load assembles configuration from defaults, the dotenv file, the environment and any
// explicit map, then validates it.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(name string) (string, bool) {
		key := envPrefix + name
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnv[key]
		return value, ok
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "ENVIRONMENT", defaultEnvironment)),
		LogLevel:    stringWithDefault(lookup, "LOG_LEVEL", ""),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Catalog: CatalogConfig{
			ProductURL:  stringWithDefault(lookup, "CATALOG_PRODUCT_URL", ""),
			UserURL:     stringWithDefault(lookup, "CATALOG_USER_URL", ""),
			ReviewURL:   stringWithDefault(lookup, "CATALOG_REVIEW_URL", ""),
			Timeout:     durationWithDefault(lookup, "CATALOG_TIMEOUT", defaultCatalogTimeout),
			FixtureFile: stringWithDefault(lookup, "CATALOG_FIXTURE_FILE", ""),
		},
		Persistence: PersistenceConfig{
			Backend:         strings.ToLower(stringWithDefault(lookup, "PERSISTENCE_BACKEND", defaultBackend)),
			TTL:             durationWithDefault(lookup, "PERSISTENCE_TTL", defaultStateTTL),
			TokenTTL:        durationWithDefault(lookup, "PERSISTENCE_TOKEN_TTL", defaultTokenTTL),
			CleanupInterval: durationWithDefault(lookup, "PERSISTENCE_CLEANUP_INTERVAL", defaultCleanupInterval),
			KeyPrefix:       stringWithDefault(lookup, "PERSISTENCE_KEY_PREFIX", defaultKeyPrefix),
		},
		Redis: RedisConfig{
			Addr:     stringWithDefault(lookup, "REDIS_ADDR", ""),
			Password: stringWithDefault(lookup, "REDIS_PASSWORD", ""),
			DB:       intWithDefault(lookup, "REDIS_DB", 0),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
			Collection:   stringWithDefault(lookup, "FIRESTORE_COLLECTION", defaultFirestoreCollection),
		},
		Auth: AuthConfig{
			AdminDomain: strings.ToLower(stringWithDefault(lookup, "AUTH_ADMIN_DOMAIN", defaultAdminDomain)),
			TokenSecret: stringWithDefault(lookup, "AUTH_TOKEN_SECRET", ""),
			TokenIssuer: stringWithDefault(lookup, "AUTH_TOKEN_ISSUER", defaultTokenIssuer),
		},
	}

	// Reviews live next to users unless a dedicated endpoint is configured.
	if cfg.Catalog.ReviewURL == "" {
		cfg.Catalog.ReviewURL = cfg.Catalog.UserURL
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Catalog.ProductURL == "" && cfg.Catalog.FixtureFile == "" {
		missing = append(missing, "Catalog.ProductURL")
	}
	if cfg.Catalog.ProductURL != "" && cfg.Catalog.UserURL == "" {
		missing = append(missing, "Catalog.UserURL")
	}
	if cfg.Catalog.Timeout <= 0 {
		missing = append(missing, "Catalog.Timeout")
	}
	switch cfg.Persistence.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			missing = append(missing, "Redis.Addr")
		}
	case BackendFirestore:
		if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
		if strings.TrimSpace(cfg.Firestore.Collection) == "" {
			missing = append(missing, "Firestore.Collection")
		}
	default:
		missing = append(missing, "Persistence.Backend")
	}
	if cfg.Persistence.TTL <= 0 {
		missing = append(missing, "Persistence.TTL")
	}
	if cfg.Persistence.TokenTTL <= 0 {
		missing = append(missing, "Persistence.TokenTTL")
	}
	if strings.TrimSpace(cfg.Auth.TokenSecret) == "" {
		missing = append(missing, "Auth.TokenSecret")
	}
	if strings.TrimSpace(cfg.Auth.AdminDomain) == "" {
		missing = append(missing, "Auth.AdminDomain")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}
