package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port string

	// Catalog backend: "file", "postgres" or "redis".
	CatalogBackend string
	SharesFile     string // CatalogBackend=="file"
	DatabaseURL    string // CatalogBackend=="postgres"
	RedisURL       string // CatalogBackend=="redis"

	// Recipient bearer tokens, "token1=recipient1,token2=recipient2".
	BearerTokens string

	// JWTSecret, when set, enables signed-JWT bearer tokens alongside the
	// static BearerTokens map (see internal/sharing/authn.JWTTokenStore).
	JWTSecret string

	// Presigning
	SignedURLTTL     time.Duration
	AWSRegion        string
	GCSServiceAccount string
	GCSPrivateKeyPath string
	AzureAccountName  string
	AzureAccountKey   string
}

var globalConfig *Config

// Load reads and validates all configuration from environment variables.
// This should be called once at application startup.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		CatalogBackend:    strings.ToLower(getEnv("CATALOG_BACKEND", "file")),
		SharesFile:        getEnv("SHARES_FILE", "shares.yaml"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		BearerTokens:      os.Getenv("SHARING_BEARER_TOKENS"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SignedURLTTL:      getDurationEnv("SIGNED_URL_TTL_SECONDS", 3600),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		GCSServiceAccount: os.Getenv("GCS_SERVICE_ACCOUNT_EMAIL"),
		GCSPrivateKeyPath: os.Getenv("GCS_PRIVATE_KEY_PATH"),
		AzureAccountName:  os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:   os.Getenv("AZURE_STORAGE_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = cfg
	log.Println("[config] configuration loaded successfully")
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errors []string

	validBackends := map[string]bool{"file": true, "postgres": true, "redis": true}
	if !validBackends[c.CatalogBackend] {
		errors = append(errors, fmt.Sprintf("CATALOG_BACKEND must be one of: file, postgres, redis (got: %s)", c.CatalogBackend))
	}

	switch c.CatalogBackend {
	case "file":
		if c.SharesFile == "" {
			errors = append(errors, "SHARES_FILE is required when CATALOG_BACKEND=file")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when CATALOG_BACKEND=postgres")
		}
	case "redis":
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when CATALOG_BACKEND=redis")
		}
	}

	if c.SignedURLTTL <= 0 {
		errors = append(errors, "SIGNED_URL_TTL_SECONDS must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Get returns the global configuration instance. Must call Load() first.
func Get() *Config {
	if globalConfig == nil {
		log.Fatal("[config] Config.Get() called before Load()")
	}
	return globalConfig
}

// MustLoad loads configuration and exits the process if validation fails.
// Use this in main() for fail-fast behavior.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("[config] failed to load configuration: %v", err)
	}
	return cfg
}

// BearerTokenMap parses BearerTokens ("token1=recipient1,token2=recipient2")
// into a token-to-recipient-id map.
func (c *Config) BearerTokenMap() map[string]string {
	out := map[string]string{}
	if c.BearerTokens == "" {
		return out
	}
	for _, pair := range strings.Split(c.BearerTokens, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		out[kv[0]] = kv[1]
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] WARNING: invalid integer value for %s: %s, using default: %d", key, value, defaultSeconds)
		return time.Duration(defaultSeconds) * time.Second
	}
	return time.Duration(seconds) * time.Second
}
