package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
)

type Config struct {
	Issuer      string        // Issuer claim for session tokens (default: apothecary-auth)
	TokenSecret string        // Required: HMAC secret for session tokens
	TokenTTL    time.Duration // Optional: session token lifetime (default: 7 days)

	CodeTTL             time.Duration // Optional: verification code lifetime (default: 10m)
	CodeMaxAttempts     int           // Optional: guess budget per code (default: 5)
	EmergencyCodeSecret string        // Optional: enables the break-glass daily code when set
	CodeStore           string        // Code store driver: memory, redis (default: memory)
	RedisAddr           string        // Redis address when CodeStore is redis (default: localhost:6379)

	CookieName   string   // Session cookie name (default: session_auth)
	CookieDomain string   // Production cookie domain (default: none, host-only)
	CookieSecure bool     // Set the Secure attribute on the canonical cookie (default: true)
	LegacyNames  []string // Old cookie names still cleared on logout
	LegacyPaths  []string // Old cookie paths still cleared on logout

	DatabaseFile         string        // Path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Path to password pepper file (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-code sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "apothecary-auth"),
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		TokenTTL:    getEnvDurationOrDefault("AUTH_TOKEN_TTL", sessiontoken.DefaultTTL),

		CodeTTL:             getEnvDurationOrDefault("AUTH_CODE_TTL", service.DefaultCodeTTL),
		CodeMaxAttempts:     getEnvIntOrDefault("AUTH_CODE_MAX_ATTEMPTS", service.DefaultMaxAttempts),
		EmergencyCodeSecret: os.Getenv("AUTH_EMERGENCY_CODE_SECRET"),
		CodeStore:           getEnvOrDefault("AUTH_CODE_STORE", "memory"),
		RedisAddr:           getEnvOrDefault("REDIS_ADDR", "localhost:6379"),

		CookieName:   getEnvOrDefault("AUTH_COOKIE_NAME", "session_auth"),
		CookieDomain: os.Getenv("AUTH_COOKIE_DOMAIN"),
		CookieSecure: getEnvOrDefault("AUTH_COOKIE_SECURE", "true") == "true",
		LegacyNames:  getEnvListOrDefault("AUTH_COOKIE_LEGACY_NAMES", nil),
		LegacyPaths:  getEnvListOrDefault("AUTH_COOKIE_LEGACY_PATHS", nil),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer minutes for operators who skip the unit suffix
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
