// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Bling API v3 endpoints.
const (
	defaultAuthURL    = "https://www.bling.com.br/b/Api/v3/oauth/authorize"
	defaultTokenURL   = "https://www.bling.com.br/Api/v3/oauth/token"
	defaultAPIBaseURL = "https://www.bling.com.br/Api/v3"
)

// Config contains runtime configuration values.
type Config struct {
	Server ServerConfig
	Bling  BlingConfig
	Redis  RedisConfig
	Cache  CacheConfig

	SessionSecret string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

// BlingConfig holds OAuth client credentials and endpoint URLs for Bling.
type BlingConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// RedisConfig holds Redis connection settings. An empty Addr disables
// Redis entirely and the server falls back to in-memory caching.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// CacheConfig holds sales-result cache settings.
type CacheConfig struct {
	TTL time.Duration
}

// ConfigurationError reports required settings that are absent. It is
// fatal: the server refuses to start without Bling credentials.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Load reads configuration from environment variables. BLING_CLIENT_ID,
// BLING_CLIENT_SECRET and BLING_REDIRECT_URI are required.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:    getEnv("HTTP_PORT", "8080"),
			Timeout: getDuration("HTTP_TIMEOUT", 15*time.Second),
		},
		Bling: BlingConfig{
			ClientID:     os.Getenv("BLING_CLIENT_ID"),
			ClientSecret: os.Getenv("BLING_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("BLING_REDIRECT_URI"),
			AuthURL:      getEnv("BLING_AUTH_URL", defaultAuthURL),
			TokenURL:     getEnv("BLING_TOKEN_URL", defaultTokenURL),
			APIBaseURL:   getEnv("BLING_API_BASE_URL", defaultAPIBaseURL),
		},
		Redis: RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "blingserver"),
		},
		Cache: CacheConfig{
			TTL: getDuration("SALES_CACHE_TTL", time.Hour),
		},
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	var missing []string
	if cfg.Bling.ClientID == "" {
		missing = append(missing, "BLING_CLIENT_ID")
	}
	if cfg.Bling.ClientSecret == "" {
		missing = append(missing, "BLING_CLIENT_SECRET")
	}
	if cfg.Bling.RedirectURI == "" {
		missing = append(missing, "BLING_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return Config{}, &ConfigurationError{Missing: missing}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
