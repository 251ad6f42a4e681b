package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port      string
	JWTSecret string
	Remote    RemoteConfig
	Database  DatabaseConfig
}

// RemoteConfig holds the remote authority endpoint and credentials
type RemoteConfig struct {
	URL     string // project endpoint, e.g. https://xyz.supabase.co
	AnonKey string // anonymous access key
	Bucket  string // photo storage bucket
}

// DatabaseConfig holds the local store configuration
type DatabaseConfig struct {
	Driver   string // sqlite, embedded or postgres
	Path     string // sqlite file path
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "3000"),
		JWTSecret: getEnv("JWT_SECRET", "chantierpro-dev-secret"),
		Remote: RemoteConfig{
			URL:     os.Getenv("SUPABASE_URL"),
			AnonKey: os.Getenv("SUPABASE_ANON_KEY"),
			Bucket:  getEnv("SUPABASE_PHOTO_BUCKET", "rapport-photos"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("LOCAL_DB_DRIVER", "sqlite"),
			Path:     getEnv("LOCAL_DB_PATH", "./data/chantierpro.db"),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "chantierpro"),
		},
	}, nil
}

// IsConfigured reports whether remote sync is available for this process.
// Both the endpoint and the key must be present and the endpoint must belong
// to the expected authority domain. A false value is a permanent mode switch
// to local-only operation, not a transient condition.
func (r RemoteConfig) IsConfigured() bool {
	return r.URL != "" && r.AnonKey != "" && strings.Contains(r.URL, "supabase.co")
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
