package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimit       struct {
			Burst        int     `yaml:"burst"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Cache struct {
		Backend           string `yaml:"backend"` // memory, file or redis
		Dir               string `yaml:"dir"`
		BucketOffsetHours int    `yaml:"bucket_offset_hours"`
		Disabled          bool   `yaml:"disabled"`
		Redis             struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Search struct {
		MaxAssets     int  `yaml:"max_assets"`
		Concurrency   int  `yaml:"concurrency"`
		LeverageFloor bool `yaml:"leverage_floor"` // clamp leveraged values at zero
	} `yaml:"search"`
	Scheduler struct {
		Enabled     bool     `yaml:"enabled"`
		Preload     bool     `yaml:"preload"`
		Concurrency int      `yaml:"concurrency"`
		Sources     []string `yaml:"sources"`
	} `yaml:"scheduler"`
	Sources struct {
		Sgs struct {
			BaseURL      string `yaml:"base_url"`
			Retries      int    `yaml:"retries"`
			MaxSpanYears int    `yaml:"max_span_years"`
		} `yaml:"sgs"`
		Treasury struct {
			URL     string `yaml:"url"`
			Retries int    `yaml:"retries"`
		} `yaml:"treasury"`
		Yahoo struct {
			BaseURL string `yaml:"base_url"`
			Retries int    `yaml:"retries"`
		} `yaml:"yahoo"`
	} `yaml:"sources"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("SCHEDULER_SOURCES"); v != "" {
		c.Scheduler.Sources = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 10
	}
	if c.Server.RateLimit.RefillPerSec == 0 {
		c.Server.RateLimit.RefillPerSec = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(os.TempDir(), "assethist")
	}
	if c.Cache.BucketOffsetHours == 0 {
		c.Cache.BucketOffsetHours = 7
	}
	if c.Search.MaxAssets == 0 {
		c.Search.MaxAssets = 10
	}
	if c.Search.Concurrency == 0 {
		c.Search.Concurrency = 5
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = 2
	}
	if c.Sources.Sgs.BaseURL == "" {
		c.Sources.Sgs.BaseURL = "https://api.bcb.gov.br/dados/serie"
	}
	if c.Sources.Sgs.Retries == 0 {
		c.Sources.Sgs.Retries = 5
	}
	if c.Sources.Sgs.MaxSpanYears == 0 {
		c.Sources.Sgs.MaxSpanYears = 9
	}
	if c.Sources.Treasury.URL == "" {
		c.Sources.Treasury.URL = "https://www.tesourotransparente.gov.br/ckan/dataset/df56aa42-484a-4a59-8184-7676580c81e3/resource/796d2059-14e9-44e3-80c9-2d9e30b405c1/download/PrecoTaxaTesouroDireto.csv"
	}
	if c.Sources.Treasury.Retries == 0 {
		c.Sources.Treasury.Retries = 3
	}
	if c.Sources.Yahoo.BaseURL == "" {
		c.Sources.Yahoo.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if c.Sources.Yahoo.Retries == 0 {
		c.Sources.Yahoo.Retries = 3
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory, file or redis")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	if c.Search.MaxAssets < 1 {
		return fmt.Errorf("search.max_assets must be positive")
	}
	if c.Search.Concurrency < 1 {
		return fmt.Errorf("search.concurrency must be positive")
	}
	return nil
}
