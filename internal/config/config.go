package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

const defaultJWTSecret = "ledger-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Store
	StoreBackend string
	SQLitePath   string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Auth
	AuthEnabled        bool
	JWTSecret          string
	JWTAccessTTL       time.Duration
	EditorUsername     string
	EditorPasswordHash string // bcrypt

	// Import
	ImportRatePerSec float64
	ImportBurst      int

	// CORS
	CORSAllowedOrigins []string

	// Export archive
	ExportBucket string
	ExportPrefix string

	// Ledger
	BalanceTolerance float64
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		SQLitePath:   getEnv("SQLITE_PATH", "ledger.db"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AuthEnabled:        getEnvBool("AUTH_ENABLED", false),
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTTL:       getEnvDuration("JWT_ACCESS_TTL", 8*time.Hour),
		EditorUsername:     getEnv("EDITOR_USERNAME", "treasurer"),
		EditorPasswordHash: getEnv("EDITOR_PASSWORD_HASH", ""),

		ImportRatePerSec: getEnvFloat("IMPORT_RATE_PER_SEC", 1),
		ImportBurst:      getEnvInt("IMPORT_BURST", 5),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		ExportBucket: getEnv("EXPORT_BUCKET", ""),
		ExportPrefix: getEnv("EXPORT_PREFIX", "exports"),

		BalanceTolerance: getEnvFloat("BALANCE_TOLERANCE", 0.01),
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.AuthEnabled {
		if c.EditorPasswordHash == "" {
			return fmt.Errorf("EDITOR_PASSWORD_HASH is required when AUTH_ENABLED is set")
		}
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set when AUTH_ENABLED is set")
		}
	}
	if c.BalanceTolerance < 0 {
		return fmt.Errorf("BALANCE_TOLERANCE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
