package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "instaclone/backend/pkg/errors"
)

// Media backends accepted by MEDIA_BACKEND
const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	// App
	Port         string
	Env          string
	ClientOrigin string // Allowed CORS origin; credentials require an explicit origin
	LogFile      string // Optional rotated log file in addition to stderr

	// Neo4j (users, posts, comments, follow graph)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// MongoDB (direct messages)
	MongoURL      string
	MongoDatabase string

	// Sessions
	SecretKey string
	TokenTTL  time.Duration

	// Media
	MediaBackend    string // "local" or "s3"
	MediaDir        string
	MediaBaseURL    string
	S3Bucket        string
	S3Region        string
	S3PublicBaseURL string
	UpstreamTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		LogFile:         getEnv("LOG_FILE", ""),
		Neo4jURI:        getEnv("NEO4J_URI", ""),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", ""),
		MongoURL:        getEnv("MONGO_URL", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "instaclone"),
		SecretKey:       getEnv("SECRET_KEY", ""),
		TokenTTL:        time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		MediaBackend:    getEnv("MEDIA_BACKEND", MediaBackendLocal),
		MediaDir:        getEnv("MEDIA_DIR", "uploads"),
		MediaBaseURL:    getEnv("MEDIA_BASE_URL", "http://localhost:8080/uploads"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.MongoURL == "" {
		return apperrors.NewConfigMissingRequired("MONGO_URL")
	}
	if c.SecretKey == "" {
		return apperrors.NewConfigMissingRequired("SECRET_KEY")
	}
	switch c.MediaBackend {
	case MediaBackendLocal:
	case MediaBackendS3:
		if c.S3Bucket == "" {
			return apperrors.NewConfigMissingRequired("S3_BUCKET")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be \"local\" or \"s3\", got %q", c.MediaBackend)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
