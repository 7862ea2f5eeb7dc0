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
	Server      ServerConfig
	App         AppConfig
	Cache       CacheConfig
	CharacterDB CharacterDBConfig
	Auction     AuctionConfig
	Audit       AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"arpg-auction-gateway"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin endpoints login key
}

// CacheConfig holds access token cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CharacterDBConfig holds character database settings.
type CharacterDBConfig struct {
	Type string `envconfig:"CHARACTER_DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"CHARACTER_DB_PATH" default:"./data/characters.db"`
	// MySQL settings
	Host     string `envconfig:"CHARACTER_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"CHARACTER_DB_PORT" default:"3306"`
	Name     string `envconfig:"CHARACTER_DB_NAME" default:"arpg"`
	User     string `envconfig:"CHARACTER_DB_USER" default:"root"`
	Password string `envconfig:"CHARACTER_DB_PASS" default:""`
}

// AuctionConfig holds external auction service settings.
type AuctionConfig struct {
	BaseURL      string        `envconfig:"AUCTION_SERVICE_URL" default:"http://localhost:9800/auction-house"`
	ServiceToken string        `envconfig:"AUCTION_SERVICE_TOKEN" default:""`
	Timeout      time.Duration `envconfig:"AUCTION_SERVICE_TIMEOUT" default:"10s"`
}

// AuditConfig holds auction audit log settings. The audit log is always
// SQLite; Path is only used when the character database is not, otherwise
// the records share the character database file.
type AuditConfig struct {
	Path            string        `envconfig:"AUDIT_DB_PATH" default:"./data/audit.db"`
	Retention       time.Duration `envconfig:"AUDIT_RETENTION" default:"720h"` // 30 days
	CleanupInterval time.Duration `envconfig:"AUDIT_CLEANUP_INTERVAL" default:"24h"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name.
func (d *CharacterDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
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
