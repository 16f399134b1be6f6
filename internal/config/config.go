package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds API server configuration sourced from env vars.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTTTL             time.Duration
	CORSOrigins        []string
	LoginRatePerMinute int
	LogLevel           string
	Production         bool
	SeedAdminPassword  string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:               fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:          fallback(os.Getenv("JWT_ISSUER"), "erp-portal"),
		JWTTTL:             minutes(os.Getenv("JWT_TTL_MINUTES"), 60*time.Minute),
		CORSOrigins:        parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LoginRatePerMinute: positiveInt(os.Getenv("LOGIN_RATE_PER_MINUTE"), 10),
		LogLevel:           fallback(os.Getenv("LOG_LEVEL"), "info"),
		Production:         parseBool(os.Getenv("APP_PRODUCTION")),
		SeedAdminPassword:  strings.TrimSpace(os.Getenv("SEED_ADMIN_PASSWORD")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Production && len(cfg.JWTSecret) < 32 {
		return Config{}, errors.New("JWT_SECRET must be at least 32 characters in production")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ClientConfig is the environment of the API client and CLI.
type ClientConfig struct {
	APIURL         string
	Production     bool
	AppName        string
	Version        string
	SessionFile    string
	HTTPTimeout    time.Duration
	SearchDebounce time.Duration
	LogLevel       string
}

// LoadClient reads the client environment.
func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:         strings.TrimRight(fallback(os.Getenv("API_URL"), "http://localhost:8080/api"), "/"),
		Production:     parseBool(os.Getenv("APP_PRODUCTION")),
		AppName:        fallback(os.Getenv("APP_NAME"), "ERP Portal"),
		Version:        fallback(os.Getenv("APP_VERSION"), "1.0.0"),
		SessionFile:    strings.TrimSpace(os.Getenv("SESSION_FILE")),
		HTTPTimeout:    time.Duration(positiveInt(os.Getenv("HTTP_TIMEOUT_SECONDS"), 30)) * time.Second,
		SearchDebounce: time.Duration(positiveInt(os.Getenv("SEARCH_DEBOUNCE_MS"), 300)) * time.Millisecond,
		LogLevel:       fallback(os.Getenv("LOG_LEVEL"), "warn"),
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return ClientConfig{}, fmt.Errorf("API_URL must be an http(s) URL, got %q", cfg.APIURL)
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("resolve session file: %w", err)
		}
		cfg.SessionFile = dir + string(os.PathSeparator) + "erp-portal" + string(os.PathSeparator) + "session.json"
	}
	return cfg, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func minutes(value string, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return def
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
