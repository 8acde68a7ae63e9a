package config

import (
	"fmt"
	"os"
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
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Binance struct {
		RestURL         string        `yaml:"rest_url"`
		WebSocketURL    string        `yaml:"websocket_url"`
		Symbols         []string      `yaml:"symbols"`
		DefaultSymbol   string        `yaml:"default_symbol"`
		DefaultInterval string        `yaml:"default_interval"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ReconnectDelay  time.Duration `yaml:"reconnect_delay"`
		DepthLimit      int           `yaml:"depth_limit"`
		KlinePageSize   int           `yaml:"kline_page_size"`
		RequestsPerSec  int           `yaml:"requests_per_sec"`
	} `yaml:"binance"`
	Patterns struct {
		Background bool `yaml:"background"`
		QueueSize  int  `yaml:"queue_size"`
	} `yaml:"patterns"`
	Cache struct {
		Backend  string        `yaml:"backend"`
		TTL      time.Duration `yaml:"ttl"`
		MaxItems int           `yaml:"max_items"`
		Redis    struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
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

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("BINANCE_REST_URL"); v != "" {
		c.Binance.RestURL = v
	}
	if v := os.Getenv("BINANCE_WS_URL"); v != "" {
		c.Binance.WebSocketURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("DEFAULT_SYMBOL"); v != "" {
		c.Binance.DefaultSymbol = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Binance.RequestTimeout == 0 {
		c.Binance.RequestTimeout = 15 * time.Second
	}
	if c.Binance.ReconnectDelay == 0 {
		c.Binance.ReconnectDelay = 5 * time.Second
	}
	if c.Binance.DepthLimit == 0 {
		c.Binance.DepthLimit = 100
	}
	if c.Binance.KlinePageSize == 0 {
		c.Binance.KlinePageSize = 1000
	}
	if c.Binance.DefaultInterval == "" {
		c.Binance.DefaultInterval = "1d"
	}
	if c.Patterns.QueueSize == 0 {
		c.Patterns.QueueSize = 16
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Binance.RestURL == "" {
		return fmt.Errorf("binance.rest_url is required")
	}
	if c.Binance.WebSocketURL == "" {
		return fmt.Errorf("binance.websocket_url is required")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	if c.Binance.DefaultSymbol == "" {
		c.Binance.DefaultSymbol = c.Binance.Symbols[0]
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when cache.backend is 'redis'")
	}
	return nil
}
