package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	Environment    string `env:"APP_ENV" env-default:"development"`
	Port           string `env:"PORT" env-default:"8080"`
	ServiceName    string `env:"SERVICE_NAME" env-default:"simpletodo"`
	ServiceVersion string `env:"SERVICE_VERSION" env-default:"1.0.0"`

	Database  DatabaseConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig

	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	RateLimit        RateLimitConfig

	EnforceHTTPS bool `env:"ENFORCE_HTTPS" env-default:"false"`
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"sqlite"`
	// URL is the PostgreSQL connection string.
	URL  string `env:"DATABASE_URL"`
	Path string `env:"DATABASE_PATH" env-default:"database.db"`

	PoolSize    int           `env:"DATABASE_POOL_SIZE" env-default:"10"`
	PoolRecycle time.Duration `env:"DATABASE_POOL_RECYCLE" env-default:"300s"`

	// Echo logs every SQL statement.
	Echo    bool   `env:"DATABASE_ECHO" env-default:"false"`
	SSLMode string `env:"DATABASE_SSLMODE"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type TelemetryConfig struct {
	Enabled      bool   `env:"TELEMETRY_ENABLED" env-default:"false"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	MetricsPort  string `env:"METRICS_PORT" env-default:"9091"`
	LokiURL      string `env:"LOKI_URL"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// Load reads an optional .env file and then the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg AppConfig

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Database.PoolSize < 1 {
		return fmt.Errorf("DATABASE_POOL_SIZE must be positive, got %d", c.Database.PoolSize)
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment:    "development",
		Port:           "8080",
		ServiceName:    "simpletodo",
		ServiceVersion: "1.0.0",
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			Path:        "database.db",
			PoolSize:    10,
			PoolRecycle: 300 * time.Second,
		},
		HTTP: HTTPConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			MetricsPort:  "9091",
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
	}
}
