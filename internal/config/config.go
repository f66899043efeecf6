// Package config loads scraper settings from environment variables with
// an optional YAML file overlay. File values win over environment values,
// flags (applied by the CLI) win over both.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the scraper.
type Config struct {
	BaseURL    string
	DBPath     string
	RedisAddr  string
	CacheTTL   time.Duration
	RateLimit  int
	RateWindow time.Duration
	PageSize   int
	MaxIssues  int
	LogLevel   string
	LogPretty  bool
}

// fileConfig mirrors Config for the YAML overlay. Pointer fields tell
// absent keys apart from explicit zero values, durations are Go duration
// strings like "500ms".
type fileConfig struct {
	BaseURL    *string `yaml:"base_url"`
	DBPath     *string `yaml:"db_path"`
	RedisAddr  *string `yaml:"redis_addr"`
	CacheTTL   *string `yaml:"cache_ttl"`
	RateLimit  *int    `yaml:"rate_limit"`
	RateWindow *string `yaml:"rate_window"`
	PageSize   *int    `yaml:"page_size"`
	MaxIssues  *int    `yaml:"max_issues"`
	LogLevel   *string `yaml:"log_level"`
	LogPretty  *bool   `yaml:"log_pretty"`
}

// Load builds the configuration from environment variables, then overlays
// the YAML file at path when path is non-empty.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:    getEnv("JIRA_SCRAPER_BASE_URL", "https://issues.apache.org/jira"),
		DBPath:     getEnv("JIRA_SCRAPER_DB", "./jira-corpus.sqlite"),
		RedisAddr:  getEnv("JIRA_SCRAPER_REDIS_ADDR", ""),
		CacheTTL:   getEnvDuration("JIRA_SCRAPER_CACHE_TTL", time.Hour),
		RateLimit:  getEnvInt("JIRA_SCRAPER_RATE_LIMIT", 10),
		RateWindow: getEnvDuration("JIRA_SCRAPER_RATE_WINDOW", time.Second),
		PageSize:   getEnvInt("JIRA_SCRAPER_PAGE_SIZE", 50),
		MaxIssues:  getEnvInt("JIRA_SCRAPER_MAX_ISSUES", 0),
		LogLevel:   getEnv("JIRA_SCRAPER_LOG_LEVEL", "info"),
		LogPretty:  getEnvBool("JIRA_SCRAPER_LOG_PRETTY", false),
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.BaseURL != nil {
		c.BaseURL = *fc.BaseURL
	}
	if fc.DBPath != nil {
		c.DBPath = *fc.DBPath
	}
	if fc.RedisAddr != nil {
		c.RedisAddr = *fc.RedisAddr
	}
	if fc.CacheTTL != nil {
		d, err := time.ParseDuration(*fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("parse cache_ttl: %w", err)
		}
		c.CacheTTL = d
	}
	if fc.RateLimit != nil {
		c.RateLimit = *fc.RateLimit
	}
	if fc.RateWindow != nil {
		d, err := time.ParseDuration(*fc.RateWindow)
		if err != nil {
			return fmt.Errorf("parse rate_window: %w", err)
		}
		c.RateWindow = d
	}
	if fc.PageSize != nil {
		c.PageSize = *fc.PageSize
	}
	if fc.MaxIssues != nil {
		c.MaxIssues = *fc.MaxIssues
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.LogPretty != nil {
		c.LogPretty = *fc.LogPretty
	}
	return nil
}

// Validate rejects configurations the scraper cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("rate limit must be at least 1, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive, got %v", c.RateWindow)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1, got %d", c.PageSize)
	}
	if c.MaxIssues < 0 {
		return fmt.Errorf("max issues must not be negative, got %d", c.MaxIssues)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
