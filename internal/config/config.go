// Package config loads API configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreDatabase = "database"
	StoreREST     = "rest"
)

// Feed bounds.
const (
	DefaultFeedSize     = 10
	MaxFeedSize         = 50
	DefaultFeedInterval = 30 * time.Second
)

// Config holds application configuration
type Config struct {
	// Server
	Env         string
	LogLevel    string
	Port        string
	CORSOrigins []string
	Location    *time.Location

	// Auth
	JWTSecret        string
	IngestAPIKey     string
	IngestAPIKeyHash string

	// Audit store
	AuditStore     string
	StoreURL       string
	StoreAPIKey    string
	RequestTimeout time.Duration

	// Recent activity feed
	FeedSize     int
	FeedInterval time.Duration
}

// Load reads the environment (and .env when present) and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		IngestAPIKey:     os.Getenv("INGEST_API_KEY"),
		IngestAPIKeyHash: os.Getenv("INGEST_API_KEY_HASH"),
		AuditStore:       strings.ToLower(getEnv("AUDIT_STORE", StoreDatabase)),
		StoreURL:         strings.TrimRight(os.Getenv("AUDIT_STORE_URL"), "/"),
		StoreAPIKey:      os.Getenv("AUDIT_STORE_API_KEY"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}
	if len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("CORS_ORIGINS must list at least one origin")
	}

	switch cfg.AuditStore {
	case StoreDatabase:
	case StoreREST:
		if cfg.StoreURL == "" {
			return nil, fmt.Errorf("AUDIT_STORE_URL is required when AUDIT_STORE=%s", StoreREST)
		}
		if cfg.StoreAPIKey == "" {
			return nil, fmt.Errorf("AUDIT_STORE_API_KEY is required when AUDIT_STORE=%s", StoreREST)
		}
	default:
		return nil, fmt.Errorf("invalid AUDIT_STORE %q: must be %s or %s", cfg.AuditStore, StoreDatabase, StoreREST)
	}

	timeout, err := parseDuration("REQUEST_TIMEOUT", os.Getenv("REQUEST_TIMEOUT"), 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	interval, err := parseDuration("FEED_INTERVAL", os.Getenv("FEED_INTERVAL"), DefaultFeedInterval)
	if err != nil {
		return nil, err
	}
	cfg.FeedInterval = interval

	size, err := parseFeedSize(os.Getenv("FEED_SIZE"))
	if err != nil {
		return nil, err
	}
	cfg.FeedSize = size

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func parseDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseFeedSize(s string) (int, error) {
	if s == "" {
		return DefaultFeedSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid FEED_SIZE %q: %w", s, err)
	}
	if n < 1 || n > MaxFeedSize {
		return 0, fmt.Errorf("FEED_SIZE must be between 1 and %d, got %d", MaxFeedSize, n)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
