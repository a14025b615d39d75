package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the complete console backend configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Query      QueryConfig      `json:"query"`
	Database   DatabaseConfig   `json:"database"`
	Onboarding OnboardingConfig `json:"onboarding"`
	Artifacts  ArtifactsConfig  `json:"artifacts"`
	Auth       AuthConfig       `json:"auth"`
	Logging    LoggingConfig    `json:"logging"`
}

// ServerConfig for the HTTP and gRPC listeners
type ServerConfig struct {
	Port           int    `json:"port"`
	GRPCPort       int    `json:"grpc_port"`
	RequestTimeout string `json:"request_timeout"`
	CORSOrigin     string `json:"cors_origin"`
}

// QueryConfig for the SRQL engine
type QueryConfig struct {
	MaxLimit     int    `json:"max_limit"`
	DefaultLimit int    `json:"default_limit"`
	QueryTimeout string `json:"query_timeout"`
	GraphName    string `json:"graph_name"`
}

// DatabaseConfig for the PostgreSQL/TimescaleDB backend
type DatabaseConfig struct {
	URL             string `json:"url"`
	MaxConns        int    `json:"max_conns"`
	ConnMaxLifetime string `json:"conn_max_lifetime"`
}

// OnboardingConfig for edge package issuance
type OnboardingConfig struct {
	Enabled            bool   `json:"enabled"`
	JoinTokenTTL       string `json:"join_token_ttl"`
	DownloadTokenTTL   string `json:"download_token_ttl"`
	DefaultSelectors   string `json:"default_selectors"` // comma-separated
	APIBaseURL         string `json:"api_base_url"`
	DownloadTokenBytes int    `json:"download_token_bytes"`
}

// ArtifactsConfig for package archive storage
type ArtifactsConfig struct {
	Backend string        `json:"backend"` // "local" or "s3"
	LocalFS LocalFSConfig `json:"local_fs"`
	S3      S3Config      `json:"s3"`
}

// LocalFSConfig for local file system storage
type LocalFSConfig struct {
	BasePath string `json:"base_path"`
}

// S3Config for S3 storage backend
type S3Config struct {
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
	Prefix   string `json:"prefix"`
	Endpoint string `json:"endpoint"`
}

// AuthConfig for authentication
type AuthConfig struct {
	Enabled     bool   `json:"enabled"`
	JWTSecret   string `json:"jwt_secret"`
	JWTIssuer   string `json:"jwt_issuer"`
	TokenExpiry string `json:"token_expiry"`
}

// LoggingConfig for structured logging
type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8090),
			GRPCPort:       getEnvInt("GRPC_PORT", 8091),
			RequestTimeout: getEnvString("REQUEST_TIMEOUT", "30s"),
			CORSOrigin:     getEnvString("CORS_ORIGIN", "*"),
		},
		Query: QueryConfig{
			MaxLimit:     getEnvInt("QUERY_MAX_LIMIT", 500),
			DefaultLimit: getEnvInt("QUERY_DEFAULT_LIMIT", 100),
			QueryTimeout: getEnvString("QUERY_TIMEOUT", "30s"),
			GraphName:    getEnvString("QUERY_GRAPH_NAME", "topology"),
		},
		Database: DatabaseConfig{
			URL:             getEnvString("DATABASE_URL", "postgres://localhost:5432/serviceradar"),
			MaxConns:        getEnvInt("DATABASE_MAX_CONNS", 10),
			ConnMaxLifetime: getEnvString("DATABASE_CONN_MAX_LIFETIME", "30m"),
		},
		Onboarding: OnboardingConfig{
			Enabled:            getEnvBool("ONBOARDING_ENABLED", true),
			JoinTokenTTL:       getEnvString("ONBOARDING_JOIN_TOKEN_TTL", "24h"),
			DownloadTokenTTL:   getEnvString("ONBOARDING_DOWNLOAD_TOKEN_TTL", "1h"),
			DefaultSelectors:   getEnvString("ONBOARDING_DEFAULT_SELECTORS", ""),
			APIBaseURL:         getEnvString("ONBOARDING_API_BASE_URL", "http://localhost:8090"),
			DownloadTokenBytes: getEnvInt("ONBOARDING_DOWNLOAD_TOKEN_BYTES", 32),
		},
		Artifacts: ArtifactsConfig{
			Backend: getEnvString("ARTIFACTS_BACKEND", "local"),
			LocalFS: LocalFSConfig{
				BasePath: getEnvString("ARTIFACTS_LOCAL_PATH", "./artifacts"),
			},
			S3: S3Config{
				Bucket:   getEnvString("ARTIFACTS_S3_BUCKET", ""),
				Region:   getEnvString("ARTIFACTS_S3_REGION", "us-east-1"),
				Prefix:   getEnvString("ARTIFACTS_S3_PREFIX", "edge-packages"),
				Endpoint: getEnvString("ARTIFACTS_S3_ENDPOINT", ""),
			},
		},
		Auth: AuthConfig{
			Enabled:     getEnvBool("AUTH_ENABLED", true),
			JWTSecret:   getEnvString("JWT_SECRET", ""),
			JWTIssuer:   getEnvString("JWT_ISSUER", "serviceradar"),
			TokenExpiry: getEnvString("TOKEN_EXPIRY", "24h"),
		},
		Logging: LoggingConfig{
			Level:   getEnvString("LOG_LEVEL", "info"),
			Console: getEnvBool("LOG_CONSOLE", false),
		},
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// String returns a pretty-printed JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	if c.Query.MaxLimit <= 0 {
		return fmt.Errorf("query max limit must be positive: %d", c.Query.MaxLimit)
	}

	if c.Query.DefaultLimit <= 0 || c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("query default limit must be in 1..%d: %d", c.Query.MaxLimit, c.Query.DefaultLimit)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}

	if c.Artifacts.Backend != "local" && c.Artifacts.Backend != "s3" {
		return fmt.Errorf("invalid artifacts backend: %s", c.Artifacts.Backend)
	}

	if c.Artifacts.Backend == "s3" && c.Artifacts.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket is required for the s3 artifacts backend")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when auth is enabled")
	}

	if _, err := time.ParseDuration(c.Query.QueryTimeout); err != nil {
		return fmt.Errorf("invalid query timeout: %w", err)
	}

	return nil
}

// QueryTimeoutDuration parses the configured query timeout
func (c *Config) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Query.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
