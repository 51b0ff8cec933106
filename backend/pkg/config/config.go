package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "jobgraph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Auth
	OneTimeTokenSecret string        // HMAC secret for x-auth-onetimetoken
	OneTimeTokenTTL    time.Duration // Lifetime of issued one-time tokens
	APIKey             string        // Shared key expected in the api_key header for writes

	// Ingestion
	JobsAPIURL       string  // Third-party job listings endpoint
	CompanyAPIURL    string  // Company metadata endpoint, %v is replaced with the startup id
	BackendURL       string  // Where ingested jobs are POSTed
	IngestSchedule   string  // Cron spec; empty means run once
	IngestRatePerMin int     // Requests per minute against the third-party API
	IngestPages      int     // Listing pages fetched per run
	RedisURL         string  // Optional, enables dedupe of already posted listings
	DedupeTTL        time.Duration
	BreakerFailRatio float64 // Failure ratio that trips the third-party API breaker
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		Env:                getEnv("ENV", "development"),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", "password"),
		OneTimeTokenSecret: getEnv("ONE_TIME_TOKEN_SECRET", ""),
		OneTimeTokenTTL:    getEnvDuration("ONE_TIME_TOKEN_TTL", 5*time.Minute),
		APIKey:             getEnv("API_KEY", "special-key"),
		JobsAPIURL:         getEnv("JOBS_API_URL", "https://api.angel.co/1/jobs"),
		CompanyAPIURL:      getEnv("COMPANY_API_URL", "https://api.angel.co/1/startups/%v"),
		BackendURL:         getEnv("BACKEND_URL", "http://127.0.0.1:3000/api/v0/jobs"),
		IngestSchedule:     getEnv("INGEST_SCHEDULE", ""),
		IngestRatePerMin:   getEnvInt("INGEST_RATE_PER_MIN", 60),
		IngestPages:        getEnvInt("INGEST_PAGES", 1),
		RedisURL:           getEnv("REDIS_URL", ""),
		DedupeTTL:          getEnvDuration("DEDUPE_TTL", 24*time.Hour),
		BreakerFailRatio:   getEnvFloat("BREAKER_FAIL_RATIO", 0.6),
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
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.IngestRatePerMin <= 0 {
		return fmt.Errorf("INGEST_RATE_PER_MIN must be positive")
	}
	if c.BreakerFailRatio <= 0 || c.BreakerFailRatio > 1 {
		return fmt.Errorf("BREAKER_FAIL_RATIO must be in (0, 1]")
	}
	// Without a token secret every response is redacted, which is safe for development
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
