// Package config reads service configuration from the environment. A .env file in the
// working directory is loaded first when present.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port            string
	StoreBackend    string
	DatabaseURL     string
	ShutdownTimeout time.Duration

	RedisEnabled bool
	RedisAddr    string
	RedisDB      int
	UserCacheTTL time.Duration

	AuthPublicKeyPath  string
	AuthPrivateKeyPath string
	TokenExpire        time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		RedisEnabled: getEnvBool("REDIS_ENABLED", false),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),

		AuthPublicKeyPath:  os.Getenv("AUTH_PUBLIC_KEY_PATH"),
		AuthPrivateKeyPath: os.Getenv("AUTH_PRIVATE_KEY_PATH"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL, err = getEnvDuration("USER_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TokenExpire, err = parseTokenExpire(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" && cfg.StoreBackend == BackendPostgres {
		cfg.DatabaseURL = postgresURLFromParts()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL or PG_HOST/PG_DATABASE is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is set")
	}
	if (c.AuthPublicKeyPath == "") != (c.AuthPrivateKeyPath == "") {
		return fmt.Errorf("AUTH_PUBLIC_KEY_PATH and AUTH_PRIVATE_KEY_PATH must be set together")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// postgresURLFromParts builds a DSN from POSTGRES_USER, POSTGRES_PASSWORD, PG_HOST,
// PG_PORT and PG_DATABASE. It returns "" when PG_HOST or PG_DATABASE is unset.
func postgresURLFromParts() string {
	host := os.Getenv("PG_HOST")
	db := os.Getenv("PG_DATABASE")
	if host == "" || db == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   host + ":" + getEnv("PG_PORT", "5432"),
		Path:   "/" + db,
	}
	if mode := os.Getenv("PG_SSLMODE"); mode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(mode)
	}
	return u.String()
}

// parseTokenExpire accepts "", "0" or "never" for tokens without expiry, else a duration.
func parseTokenExpire(s string) (time.Duration, error) {
	if s == "" || s == "0" || s == "never" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return d, nil
}
