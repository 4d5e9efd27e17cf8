package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultEnv      = "development"
	defaultHTTPHost = "0.0.0.0"
	defaultHTTPPort = 8080

	defaultDataRoot             = "data"
	defaultFlushMaxTicks        = 10000
	defaultFlushIntervalSeconds = 5
	defaultRotateCheckSeconds   = 3
	defaultHandshakeSeconds     = 15
	defaultMaxFileAgeSeconds    = 60
)

// Config keeps the runtime configuration for the daemon.
type Config struct {
	Env    string
	HTTP   HTTPConfig
	Feed   FeedConfig
	Ingest IngestConfig
	Health HealthConfig
}

// HTTPConfig holds the operational HTTP server settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// FeedConfig holds exchange feed endpoints and timeouts. Empty URLs fall
// back to the public Coinbase endpoints.
type FeedConfig struct {
	URL              string
	ProductsURL      string
	HandshakeTimeout time.Duration
}

// IngestConfig tunes the ingestion pipeline. Connections == 0 sizes the pool
// so each connection carries roughly 20 symbols.
type IngestConfig struct {
	DataRoot      string
	Connections   int
	FlushMaxTicks int
	FlushInterval time.Duration
	RotateCheck   time.Duration
}

// HealthConfig controls the liveness probe.
type HealthConfig struct {
	MaxFileAge time.Duration
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	httpPort, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}
	connections, err := getInt("FEED_CONNECTIONS", 0)
	if err != nil {
		return nil, fmt.Errorf("parse FEED_CONNECTIONS: %w", err)
	}
	flushMaxTicks, err := getInt("FLUSH_MAX_TICKS", defaultFlushMaxTicks)
	if err != nil {
		return nil, fmt.Errorf("parse FLUSH_MAX_TICKS: %w", err)
	}
	flushInterval, err := getInt("FLUSH_INTERVAL_SECONDS", defaultFlushIntervalSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse FLUSH_INTERVAL_SECONDS: %w", err)
	}
	rotateCheck, err := getInt("ROTATE_CHECK_SECONDS", defaultRotateCheckSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse ROTATE_CHECK_SECONDS: %w", err)
	}
	handshake, err := getInt("FEED_HANDSHAKE_TIMEOUT_SECONDS", defaultHandshakeSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse FEED_HANDSHAKE_TIMEOUT_SECONDS: %w", err)
	}
	maxFileAge, err := getInt("HEALTH_MAX_FILE_AGE_SECONDS", defaultMaxFileAgeSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse HEALTH_MAX_FILE_AGE_SECONDS: %w", err)
	}

	return &Config{
		Env: getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{
			Host: getString("HTTP_HOST", defaultHTTPHost),
			Port: httpPort,
		},
		Feed: FeedConfig{
			URL:              os.Getenv("FEED_URL"),
			ProductsURL:      os.Getenv("FEED_PRODUCTS_URL"),
			HandshakeTimeout: time.Duration(handshake) * time.Second,
		},
		Ingest: IngestConfig{
			DataRoot:      getString("DATA_ROOT", defaultDataRoot),
			Connections:   connections,
			FlushMaxTicks: flushMaxTicks,
			FlushInterval: time.Duration(flushInterval) * time.Second,
			RotateCheck:   time.Duration(rotateCheck) * time.Second,
		},
		Health: HealthConfig{
			MaxFileAge: time.Duration(maxFileAge) * time.Second,
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}
