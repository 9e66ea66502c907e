// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreBackend selects where trips live: "file" (default) or "postgres".
	StoreBackend string

	// DataFile is the trip collection file for the file backend.
	// Defaults to "data/trips.json".
	DataFile string

	// DatabaseURL is the Postgres connection string. Required for the postgres backend.
	DatabaseURL string

	// JWTSecret is the HMAC key for bearer tokens. Empty disables authentication.
	JWTSecret string

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	// Defaults to 10 req/s with bursts of 20. An RPS of 0 disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// PublicBaseURL is the externally visible origin, used for share links.
	PublicBaseURL string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataFile:      getEnv("DATA_FILE", "data/trips.json"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
	}

	problems := cfg.storeProblems()

	var err error
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil || cfg.RateLimitRPS < 0 {
		problems = append(problems, "RATE_LIMIT_RPS must be a non-negative number")
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil || cfg.RateLimitBurst < 1 {
		problems = append(problems, "RATE_LIMIT_BURST must be a positive integer")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes < 0 {
		problems = append(problems, "MAX_BODY_BYTES must be a non-negative integer")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// ValidateStore checks the store selection. Callers that override
// StoreBackend or DatabaseURL after Load call it again.
func (c Config) ValidateStore() error {
	if problems := c.storeProblems(); len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) storeProblems() []string {
	switch c.StoreBackend {
	case BackendFile:
		return nil
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return []string{"DATABASE_URL is required when STORE_BACKEND=postgres"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.StoreBackend)}
	}
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
