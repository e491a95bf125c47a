// Package config loads catalog service settings from defaults, an optional
// YAML file, CATALOG_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "CATALOG"

type Config struct {
	Addr      string `default:":5000" usage:"HTTP listen address"`
	LogLevel  string `default:"info" usage:"Log level: debug, info, warn, error" flag:"log-level"`
	Seed      SeedConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Shutdown  ShutdownConfig
}

// SeedConfig selects the startup dataset. DatabaseURL wins over File; with
// neither set the embedded dataset is used.
type SeedConfig struct {
	File        string `default:"" usage:"CSV file with the initial products (.gz accepted)"`
	DatabaseURL string `default:"" usage:"PostgreSQL URL to load the initial products from"`
	Table       string `default:"products" usage:"Table read when DatabaseURL is set"`
}

type MetricsConfig struct {
	Enabled bool   `default:"true" usage:"Expose /metrics"`
	Token   string `default:"" usage:"Bearer token required on /metrics"`
}

// RateLimitConfig throttles mutation routes per client IP. Max 0 disables it.
type RateLimitConfig struct {
	Max    int           `default:"0" usage:"Max mutations per window per client"`
	Window time.Duration `default:"1m" usage:"Rate limit window"`
}

type ShutdownConfig struct {
	Timeout time.Duration `default:"10s" usage:"Graceful shutdown timeout"`
}

// Load reads the configuration. args are the command-line flags to parse,
// usually os.Args[1:].
func Load(args []string) (*Config, error) {
	if args == nil {
		args = []string{}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: EnvPrefix,
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
		Args:             args,
		AllowUnknownEnvs: true,
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	if c.Seed.DatabaseURL != "" && c.Seed.Table == "" {
		return errors.New("seed table is required with a seed database url")
	}
	if c.RateLimit.Max < 0 {
		return errors.Errorf("rate limit max must be >= 0, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Shutdown.Timeout <= 0 {
		return errors.Errorf("shutdown timeout must be positive, got %s", c.Shutdown.Timeout)
	}
	return nil
}
