package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"logging"`
	Cache struct {
		Backend  string `yaml:"backend" default:"redis" validate:"oneof=redis memory"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"marketpull"`
	} `yaml:"cache"`
	Market struct {
		CacheKey       string        `yaml:"cache_key" default:"market_prices"`
		CacheTTL       time.Duration `yaml:"cache_ttl" default:"6h"`
		NumSales       int           `yaml:"num_sales" default:"5" validate:"min=1,max=20"`
		FetchTimeout   time.Duration `yaml:"fetch_timeout" default:"20s"`
		DebugSampleLen int           `yaml:"debug_sample_len" default:"3000"`
	} `yaml:"market"`
	MLA struct {
		BaseURL      string `yaml:"base_url" default:"https://api-mlastatistics.mla.com.au" validate:"url"`
		IndicatorID  int    `yaml:"indicator_id" default:"0"`
		LookbackDays int    `yaml:"lookback_days" default:"36" validate:"min=29"`
	} `yaml:"mla"`
	Sources struct {
		RomaBaseURL     string  `yaml:"roma_base_url" default:"https://www.romasaleyards.com.au" validate:"url"`
		WarwickBaseURL  string  `yaml:"warwick_base_url" default:"https://www.sdrc.qld.gov.au" validate:"url"`
		DalbyListingURL string  `yaml:"dalby_listing_url" default:"https://raywhitelivestockdalby.com.au/market-reports" validate:"url"`
		FetchRate       float64 `yaml:"fetch_rate" default:"2"`
		FetchBurst      float64 `yaml:"fetch_burst" default:"4"`
	} `yaml:"sources"`
	History struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"9000"`
		Database string `yaml:"database" default:"marketpull"`
		User     string `yaml:"user" default:"default"`
		Password string `yaml:"password"`
	} `yaml:"history"`
}

// Load reads and parses a YAML configuration file, applies struct defaults
// to anything left unset, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

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

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Cache.Port = p
			}
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("MLA_BASE_URL"); v != "" {
		c.MLA.BaseURL = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.History.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Market.CacheTTL <= 0 {
		return fmt.Errorf("market.cache_ttl must be positive, got %s", c.Market.CacheTTL)
	}
	return nil
}
