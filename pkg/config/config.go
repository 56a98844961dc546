package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
			Topic     string        `yaml:"topic" default:"indicadores.logs"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Upstream struct {
		BaseURL   string        `yaml:"base_url" default:"https://mindicador.cl/api"`
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		UserAgent string        `yaml:"user_agent" default:"indicadores-dashboard/1.0"`
	} `yaml:"upstream"`
	Dashboard struct {
		YearOptions  int           `yaml:"year_options" default:"5"`
		DetailPoints int           `yaml:"detail_points" default:"30"`
		SessionTTL   time.Duration `yaml:"session_ttl" default:"30m"`
		SweepEvery   time.Duration `yaml:"sweep_every" default:"1m"`
		Location     string        `yaml:"location" default:"America/Santiago"`
		ChartWidth   int           `yaml:"chart_width" default:"900"`
		ChartHeight  int           `yaml:"chart_height" default:"380"`
	} `yaml:"dashboard"`
	Websocket struct {
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"websocket"`
	Session struct {
		Backend string `yaml:"backend" default:"memory"` // memory, redis or layered
		MaxSize int    `yaml:"max_size" default:"10000"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"indicadores"`
		} `yaml:"redis"`
	} `yaml:"session"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
	} `yaml:"rate_limit"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	// Defaults first so explicit zero values in the file (e.g. cors: false) survive.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

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
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from INDICADORES_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("INDICADORES_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("INDICADORES_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("INDICADORES_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := getenv("INDICADORES_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("INDICADORES_SESSION_BACKEND"); v != "" {
		c.Session.Backend = v
	}
	if v := getenv("INDICADORES_REDIS_HOST"); v != "" {
		c.Session.Redis.Host = v
	}
	if v := getenv("INDICADORES_REDIS_PASSWORD"); v != "" {
		c.Session.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Dashboard.YearOptions < 1 {
		return fmt.Errorf("dashboard.year_options must be >= 1")
	}
	if c.Dashboard.DetailPoints < 1 {
		return fmt.Errorf("dashboard.detail_points must be >= 1")
	}
	if _, err := time.LoadLocation(c.Dashboard.Location); err != nil {
		return fmt.Errorf("dashboard.location: %w", err)
	}
	switch c.Session.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("session.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Session.Backend)
	}
	if c.Log.Collector.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.collector requires kafka.brokers")
	}
	return nil
}

// Location returns the dashboard time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dashboard.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
