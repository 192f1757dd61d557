package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`
	PostgresDSN     string        `env:"POSTGRES_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=conduit sslmode=disable"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	KafkaBrokers    []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	JWTSecret       string        `env:"JWT_SECRET"`
	OTLPEndpoint    string        `env:"OTLP_ENDPOINT"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	TagCacheTTL     time.Duration `env:"TAG_CACHE_TTL" envDefault:"5m"`
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment only", "error", err)
	}
	return Parse()
}

// Parse reads the process environment without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"tracing", cfg.OTLPEndpoint != "")
	return cfg, nil
}
