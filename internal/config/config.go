package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	YouTube YouTubeConfig
	DB      DBConfig
	Ingest  IngestConfig
	Server  ServerConfig
	Log     LogConfig
}

// YouTubeConfig holds the remote API settings
type YouTubeConfig struct {
	APIKey     string        `envconfig:"YOUTUBE_API_KEY" required:"true"`
	BaseURL    string        `envconfig:"YOUTUBE_BASE_URL" default:"https://youtube.googleapis.com/"`
	MaxQPS     float64       `envconfig:"YOUTUBE_MAX_QPS" default:"5"`
	MaxRetries int           `envconfig:"YOUTUBE_MAX_RETRIES" default:"0"`
	Timeout    time.Duration `envconfig:"YOUTUBE_TIMEOUT" default:"30s"`
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Path     string `envconfig:"DB_PATH" default:"data/youtube_analytics.db"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"youtube_analytics"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// IngestConfig holds pipeline configuration
type IngestConfig struct {
	MaxVideos int           `envconfig:"INGEST_MAX_VIDEOS" default:"30"`
	PaceDelay time.Duration `envconfig:"INGEST_PACE_DELAY" default:"400ms"`
	Interval  time.Duration `envconfig:"INGEST_INTERVAL" default:"0"`
	Channel   string        `envconfig:"INGEST_CHANNEL"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `envconfig:"SERVER_PORT" default:"8080"`
	CORSOrigins []string `envconfig:"SERVER_CORS_ORIGINS"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// DSN returns the data source name for the configured driver
func (c *DBConfig) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.Database)
	default:
		return "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.YouTube); err != nil {
		return nil, fmt.Errorf("failed to load youtube config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Ingest); err != nil {
		return nil, fmt.Errorf("failed to load ingest config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if c.YouTube.MaxQPS <= 0 {
		return fmt.Errorf("YOUTUBE_MAX_QPS must be positive")
	}
	if c.YouTube.MaxRetries < 0 {
		return fmt.Errorf("YOUTUBE_MAX_RETRIES must not be negative")
	}
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case DriverMySQL, DriverPostgres:
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for %s", c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Ingest.MaxVideos <= 0 {
		return fmt.Errorf("INGEST_MAX_VIDEOS must be positive")
	}
	if c.Ingest.PaceDelay < 0 {
		return fmt.Errorf("INGEST_PACE_DELAY must not be negative")
	}
	if c.Ingest.Interval < 0 {
		return fmt.Errorf("INGEST_INTERVAL must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
