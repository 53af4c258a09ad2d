// Package config reads service configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration
type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64

	// DatabasePath is the SQLite file; empty selects the in-memory store
	DatabasePath string
	// CacheTTL is how long a cached assessment stays fresh
	CacheTTL time.Duration

	// RateLimitCapacity and RateLimitRefill shape the per-client token bucket
	RateLimitCapacity int
	RateLimitRefill   int

	// Provider credentials; an empty key disables that provider
	VirusTotalAPIKey   string
	SafeBrowsingAPIKey string
	WhoisXMLAPIKey     string
	URLScanAPIKey      string
	GeminiAPIKey       string
	GeminiModel        string
}

// New creates a new configuration from environment variables. A .env file in
// the working directory is loaded first when present.
func New() *Config {
	// best effort; absence of a .env file is the normal case in production
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("ZEROBAIT_PORT", "8080"),
		ReadTimeout:     getDurationEnv("ZEROBAIT_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDurationEnv("ZEROBAIT_WRITE_TIMEOUT", 90*time.Second),
		ShutdownTimeout: getDurationEnv("ZEROBAIT_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodySize:     getInt64Env("ZEROBAIT_MAX_BODY_SIZE", 100*1024), // 100KB

		DatabasePath: getEnv("ZEROBAIT_DB_PATH", "zerobait.db"),
		CacheTTL:     getDurationEnv("ZEROBAIT_CACHE_TTL", 720*time.Hour),

		RateLimitCapacity: getIntEnv("ZEROBAIT_RATE_LIMIT_CAPACITY", 10),
		RateLimitRefill:   getIntEnv("ZEROBAIT_RATE_LIMIT_REFILL", 1),

		VirusTotalAPIKey:   getEnv("VIRUSTOTAL_API_KEY", ""),
		SafeBrowsingAPIKey: getEnv("GOOGLE_SAFE_BROWSING_API_KEY", ""),
		WhoisXMLAPIKey:     getEnv("WHOISXML_API_KEY", ""),
		URLScanAPIKey:      getEnv("URLSCAN_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", ""),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable with a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getInt64Env gets an int64 environment variable with a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getIntEnv gets an int environment variable with a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
