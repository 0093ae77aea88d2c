package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_USER", "root")
	t.Setenv("JWT_SECRET", testSecret)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_PORT", "8080")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
	t.Setenv("RABBITMQ_ENABLED", "false")
	t.Setenv("STORAGE_DRIVER", "LOCAL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 30, cfg.JWT.AccessTTLMin)
	assert.Equal(t, 7, cfg.JWT.RefreshTTLDays)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "0 30 3 * * *", cfg.Jobs.RatingReconcile)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "9000"
db:
  name: rentals
log:
  level: debug
  format: JSON
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "rentals", cfg.DB.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Defaults()
		c.DB.User = "root"
		c.JWT.Secret = testSecret
		return c
	}
	c := valid()
	require.NoError(t, c.Validate())

	cases := map[string]func(c *Config){
		"short secret":       func(c *Config) { c.JWT.Secret = "short" },
		"bad port":           func(c *Config) { c.App.Port = "http" },
		"missing db user":    func(c *Config) { c.DB.User = "" },
		"unknown storage":    func(c *Config) { c.Storage.Driver = "s3" },
		"cloudinary no keys": func(c *Config) { c.Storage.Driver = "cloudinary" },
		"zero access ttl":    func(c *Config) { c.JWT.AccessTTLMin = 0 },
		"rabbit without url": func(c *Config) { c.RabbitMQ.URL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 30*time.Second, cfg.TTL)
}
