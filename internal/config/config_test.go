package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load([]string{})
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "products", cfg.Seed.Table)
	assert.Empty(t, cfg.Seed.File)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Zero(t, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10*time.Second, cfg.Shutdown.Timeout)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_ADDR", ":8082")
	t.Setenv("CATALOG_SEED_FILE", "/data/products.csv.gz")

	cfg, err := Load([]string{"-log-level=debug"})
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/data/products.csv.gz", cfg.Seed.File)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Addr:      ":5000",
			LogLevel:  "info",
			Seed:      SeedConfig{Table: "products"},
			RateLimit: RateLimitConfig{Window: time.Minute},
			Shutdown:  ShutdownConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"db without table", func(c *Config) { c.Seed.DatabaseURL = "postgres://x"; c.Seed.Table = "" }},
		{"negative rate", func(c *Config) { c.RateLimit.Max = -1 }},
		{"rate without window", func(c *Config) { c.RateLimit.Max = 3; c.RateLimit.Window = 0 }},
		{"zero shutdown", func(c *Config) { c.Shutdown.Timeout = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
