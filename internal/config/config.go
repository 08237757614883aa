package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Provider ProviderConfig
	Mongo    MongoConfig
	UsageDB  UsageDBConfig
	Cache    CacheConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"cinecatalog-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// ProviderConfig holds the external content providers.
type ProviderConfig struct {
	// Primary showtimes/upcoming/genres/theaters feed.
	BaseURL string `envconfig:"PROVIDER_BASE_URL" default:"https://api.kvikmyndir.is"`
	APIKey  string `envconfig:"PROVIDER_API_KEY" default:""`

	// Secondary metadata provider used for enrichment (posters, stills).
	MetadataBaseURL string `envconfig:"METADATA_BASE_URL" default:""`
	MetadataAPIKey  string `envconfig:"METADATA_API_KEY" default:""`

	// Local directory for JSON snapshot artifacts.
	SnapshotDir string `envconfig:"SNAPSHOT_DIR" default:"./data"`
}

// MongoConfig holds the catalog document store settings.
type MongoConfig struct {
	URI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"MONGODB_DATABASE" default:"cinecatalog"`
}

// UsageDBConfig holds usage-event store settings. The backend is switchable:
// mongodb shares the catalog deployment, sqlite is for local development.
type UsageDBConfig struct {
	Type       string `envconfig:"USAGE_DB_TYPE" default:"mongodb"` // mongodb or sqlite
	Collection string `envconfig:"USAGE_DB_COLLECTION" default:"api_usage"`
	SQLitePath string `envconfig:"USAGE_DB_PATH" default:"./data/usage.db"`
}

// CacheConfig holds the analytics response cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"1m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// IngestConfig holds the ingestion pipeline settings.
type IngestConfig struct {
	// MaxDays is the last day offset fetched by the day-walk (0..MaxDays).
	MaxDays int `envconfig:"INGEST_MAX_DAYS" default:"4"`

	// StepDelay spaces out provider requests. The provider allows 30
	// requests per 10s; a fixed delay keeps every run under that.
	StepDelay time.Duration `envconfig:"INGEST_STEP_DELAY" default:"10s"`

	// UpcomingCount bounds the upcoming-releases request.
	UpcomingCount int `envconfig:"INGEST_UPCOMING_COUNT" default:"50"`

	// Interval between scheduled runs. Runs never overlap; a tick that
	// arrives mid-run is skipped.
	Interval   time.Duration `envconfig:"INGEST_INTERVAL" default:"12h"`
	RunOnStart bool          `envconfig:"INGEST_RUN_ON_START" default:"false"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
