// Package config loads graphd configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the graphd service.
type Config struct {
	Port   int
	Version  string
	Database DatabaseConfig
	Cache   CacheConfig
	Objects  ObjectStoreConfig
	Vector  VectorIndexConfig
	Embedding EmbeddingConfig
	Telemetry TelemetryConfig
	Auth   AuthConfig
	CORS   CORSConfig
	LogLevel string
	InitDB  bool
}

type DatabaseConfig struct {
	URL      string
	MaxConnections int
}

type CacheConfig struct {
	// URL is a redis:// connection string. Empty means use the in-memory cache.
	URL string
}

type ObjectStoreConfig struct {
	// Bucket set means S3 is used; otherwise the local-file fallback is used.
	Bucket  string
	Region  string
	LocalPath string
}

type VectorIndexConfig struct {
	URL      string
	APIKey     string
	EdgeCollection string
}

type EmbeddingConfig struct {
	APIKey  string
	Endpoint string
	Model  string
}

type TelemetryConfig struct {
	Enabled   bool
	OTLPEndpoint string
	ServiceName string
}

type AuthConfig struct {
	OIDCDiscoveryURL string
	OIDCClientID   string
	OIDCClientSecret string
	OIDCRedirectURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:  envInt("GRAPHD_PORT", 8080),
		Version: envStr("GRAPHD_VERSION", "0.1.0"),
		Database: DatabaseConfig{
			URL:      envStr("DATABASE_URL", ""),
			MaxConnections: envInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Cache: CacheConfig{
			URL: envStr("REDIS_URL", ""),
		},
		Objects: ObjectStoreConfig{
			Bucket:  envStr("OS_BUCKET", ""),
			Region:  envStr("OS_REGION", "us-east-1"),
			LocalPath: envStr("OS_LOCAL_PATH", ""),
		},
		Vector: VectorIndexConfig{
			URL:      envStr("VX_URL", ""),
			APIKey:     envStr("VX_API_KEY", ""),
			EdgeCollection: envStr("VX_EDGE_COLLECTION", "edges"),
		},
		Embedding: EmbeddingConfig{
			APIKey:  envStr("EP_API_KEY", ""),
			Endpoint: envStr("EP_ENDPOINT", ""),
			Model:  envStr("EP_MODEL", "text-embedding-3-small"),
		},
		Telemetry: TelemetryConfig{
			Enabled:   envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: envStr("OTEL_SERVICE_NAME", "graphd"),
		},
		Auth: AuthConfig{
			OIDCDiscoveryURL: envStr("OIDC_DISCOVERY_URL", ""),
			OIDCClientID:   envStr("OIDC_CLIENT_ID", ""),
			OIDCClientSecret: envStr("OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL: envStr("OIDC_REDIRECT_URL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
		},
		LogLevel: envStr("LOG_LEVEL", "info"),
		InitDB:  envBool("INIT_DB", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
