package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a temp dir so Load cannot pick up a stray config.yml.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "data/faceless.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.FeedCacheTTL)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.AuthDevLogin)
	assert.False(t, cfg.OIDCConfigured())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdir(t)
	yml := "PORT: 9000\nLOG_LEVEL: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644))

	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port, "env must win over the file")
	assert.Equal(t, "debug", cfg.LogLevel, "file must win over defaults")
}

func TestLoad_ParsesTypedValues(t *testing.T) {
	chdir(t)
	t.Setenv("FEED_CACHE_TTL", "2m")
	t.Setenv("AUTH_DEV_LOGIN", "true")
	t.Setenv("DB_DRIVER", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://localhost/faceless")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.FeedCacheTTL)
	assert.True(t, cfg.AuthDevLogin)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:       "development",
			Port:      8080,
			DBDriver:  "sqlite",
			DBPath:    "x.db",
			JWTSecret: "0123456789abcdef",
			TokenTTL:  time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.DBDriver = "postgres" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{
			name: "production with default secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = defaultJWTSecret
			},
			wantErr: true,
		},
		{
			name: "production with dev login",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = "0123456789abcdef0123456789abcdef"
				c.AuthDevLogin = true
			},
			wantErr: true,
		},
		{
			name: "production with strong secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = "0123456789abcdef0123456789abcdef"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	c := Config{AllowedOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
}
