// Package config loads the backend configuration from YAML with environment
// overrides for connection secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MarketHours describes one venue's trading session. Markets absent from the
// configuration are treated as always open.
type MarketHours struct {
	Open     string   `yaml:"open"`  // "09:15"
	Close    string   `yaml:"close"` // "15:30"
	Timezone string   `yaml:"timezone"`
	Weekdays []string `yaml:"weekdays"` // e.g. ["Mon","Tue","Wed","Thu","Fri"]
}

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Driver      string `yaml:"driver"` // "memory" or "postgres"
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"storage"`

	Cache struct {
		Driver        string `yaml:"driver"` // "memory" or "redis"
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		QuoteTTLMS    int    `yaml:"quote_ttl_ms"`
	} `yaml:"cache"`

	Oracle struct {
		Provider          string  `yaml:"provider"` // "simulated" or "http"
		BaseURL           string  `yaml:"base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxElapsedMS      int     `yaml:"max_elapsed_ms"`
	} `yaml:"oracle"`

	Evaluator struct {
		IntervalMS    int `yaml:"interval_ms"`
		MaxConcurrent int `yaml:"max_concurrent"`
	} `yaml:"evaluator"`

	Markets map[string]MarketHours `yaml:"markets"`

	Logging struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text or json
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is provided: in-memory
// storage and cache, simulated oracle, five-second evaluation cadence.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Storage.Driver = "memory"
	cfg.Cache.Driver = "memory"
	cfg.Cache.QuoteTTLMS = 2000
	cfg.Oracle.Provider = "simulated"
	cfg.Oracle.RequestsPerSecond = 10
	cfg.Oracle.Burst = 5
	cfg.Oracle.MaxElapsedMS = 3000
	cfg.Evaluator.IntervalMS = 5000
	cfg.Evaluator.MaxConcurrent = 8
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Load reads and validates the configuration file at path. Values start from
// Default, so a partial file is fine; an empty path runs on defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres storage requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis cache requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache driver: %q", c.Cache.Driver)
	}

	switch c.Oracle.Provider {
	case "simulated":
	case "http":
		if c.Oracle.BaseURL == "" {
			return fmt.Errorf("http oracle requires base_url")
		}
	default:
		return fmt.Errorf("unknown oracle provider: %q", c.Oracle.Provider)
	}

	if c.Evaluator.IntervalMS <= 0 {
		return fmt.Errorf("evaluator interval must be positive")
	}
	if c.Evaluator.MaxConcurrent <= 0 {
		return fmt.Errorf("evaluator max_concurrent must be positive")
	}
	return nil
}

// EvaluatorInterval returns the evaluation cadence as a duration.
func (c *Config) EvaluatorInterval() time.Duration {
	return time.Duration(c.Evaluator.IntervalMS) * time.Millisecond
}

// QuoteTTL returns the quote cache lifetime as a duration.
func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.Cache.QuoteTTLMS) * time.Millisecond
}

// OracleMaxElapsed returns the retry budget for the HTTP oracle.
func (c *Config) OracleMaxElapsed() time.Duration {
	return time.Duration(c.Oracle.MaxElapsedMS) * time.Millisecond
}

// Secrets belong in the environment, not in the file checked into the repo.
func overrideWithEnv(cfg *Config) {
	if dsn := os.Getenv("TRADING_POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if addr := os.Getenv("TRADING_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if pw := os.Getenv("TRADING_REDIS_PASSWORD"); pw != "" {
		cfg.Cache.RedisPassword = pw
	}
	if url := os.Getenv("TRADING_ORACLE_URL"); url != "" {
		cfg.Oracle.BaseURL = url
	}
}
