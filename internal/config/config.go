// Package config loads application configuration.
//
// SOURCES, LOWEST PRIORITY FIRST:
//  1. defaults set in Load
//  2. an optional config.yml in the working directory (or ./config)
//  3. environment variables (PORT=9000 beats port: 8080 in the file)
//
// A .env file is not read here: cmd/* calls godotenv.Load before Load, and
// godotenv simply exports the file's lines as environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-only-secret-change-me-please"

// Config holds every setting the binaries read.
// The mapstructure tags are the environment variable names.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port int    `mapstructure:"PORT"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int    `mapstructure:"DB_MAX_CONNS"`

	RedisURL     string        `mapstructure:"REDIS_URL"`
	FeedCacheTTL time.Duration `mapstructure:"FEED_CACHE_TTL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	OIDCAuthURL      string `mapstructure:"OIDC_AUTH_URL"`
	OIDCTokenURL     string `mapstructure:"OIDC_TOKEN_URL"`
	OIDCUserInfoURL  string `mapstructure:"OIDC_USERINFO_URL"`
	OIDCClientID     string `mapstructure:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `mapstructure:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `mapstructure:"OIDC_REDIRECT_URL"`
	AuthDevLogin     bool   `mapstructure:"AUTH_DEV_LOGIN"`

	AllowedOrigins     string `mapstructure:"ALLOWED_ORIGINS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	TracingEnabled bool `mapstructure:"TRACING_ENABLED"`
}

// defaults doubles as the list of known keys: viper's AutomaticEnv only
// resolves keys it has heard of, and Unmarshal only fills keys viper knows.
var defaults = map[string]any{
	"APP_ENV":               "development",
	"PORT":                  8080,
	"DB_DRIVER":             "sqlite",
	"DB_PATH":               "data/faceless.db",
	"DATABASE_URL":          "",
	"DB_MAX_CONNS":          10,
	"REDIS_URL":             "",
	"FEED_CACHE_TTL":        "30s",
	"JWT_SECRET":            defaultJWTSecret,
	"TOKEN_TTL":             "168h",
	"OIDC_AUTH_URL":         "",
	"OIDC_TOKEN_URL":        "",
	"OIDC_USERINFO_URL":     "",
	"OIDC_CLIENT_ID":        "",
	"OIDC_CLIENT_SECRET":    "",
	"OIDC_REDIRECT_URL":     "http://localhost:8080/api/callback",
	"AUTH_DEV_LOGIN":        false,
	"ALLOWED_ORIGINS":       "http://localhost:5173,http://localhost:3000",
	"RATE_LIMIT_PER_MINUTE": 120,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
	"LOG_PATH":              "",
	"LOG_MAX_SIZE_MB":       100,
	"LOG_MAX_BACKUPS":       3,
	"LOG_MAX_AGE_DAYS":      7,
	"TRACING_ENABLED":       false,
}

// Load reads config.yml (if present) and the environment.
//
// A fresh viper.New() instance is used instead of the package-level viper
// so tests can call Load repeatedly without state leaking between them.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS on commas and drops blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OIDCConfigured reports whether enough is set to run the login flow.
func (c *Config) OIDCConfigured() bool {
	return c.OIDCAuthURL != "" && c.OIDCTokenURL != "" && c.OIDCUserInfoURL != "" && c.OIDCClientID != ""
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver)
	}

	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AuthDevLogin {
			return errors.New("AUTH_DEV_LOGIN must not be enabled in production")
		}
	}
	return nil
}
