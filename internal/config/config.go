// internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	Browser      BrowserConfig      `mapstructure:"browser" yaml:"browser"`
	Healing      HealingConfig      `mapstructure:"healing" yaml:"healing"`
	Relevance    RelevanceConfig    `mapstructure:"relevance" yaml:"relevance"`
	Extraction   ExtractionConfig   `mapstructure:"extraction" yaml:"extraction"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless           bool          `mapstructure:"headless" yaml:"headless"`
	Args               []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait       time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	BlockResourceTypes []string      `mapstructure:"block_resource_types" yaml:"block_resource_types"`
}

// StoreConfig selects the selector memory backend.
type StoreConfig struct {
	// Backend is "file" or "postgres".
	Backend     string `mapstructure:"backend" yaml:"backend"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
}

// HealingConfig tunes the self-healing locator.
type HealingConfig struct {
	Enabled             bool          `mapstructure:"enabled" yaml:"enabled"`
	QueryTimeout        time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	CacheFile           string        `mapstructure:"cache_file" yaml:"cache_file"`
	CacheTTLHours       int           `mapstructure:"cache_ttl_hours" yaml:"cache_ttl_hours"`
	MaxCandidates       int           `mapstructure:"max_candidates" yaml:"max_candidates"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	Strategies          []string      `mapstructure:"strategies" yaml:"strategies"`
	Store               StoreConfig   `mapstructure:"store" yaml:"store"`
}

// CacheTTL returns the cache TTL as a duration.
func (h HealingConfig) CacheTTL() time.Duration {
	return time.Duration(h.CacheTTLHours) * time.Hour
}

// RelevanceConfig tunes the content block relevance filter.
type RelevanceConfig struct {
	ExcludeSelectors []string `mapstructure:"exclude_selectors" yaml:"exclude_selectors"`
	MinScore         float64  `mapstructure:"min_score" yaml:"min_score"`
	MaxItems         int      `mapstructure:"max_items" yaml:"max_items"`
	MaxBlocks        int      `mapstructure:"max_blocks" yaml:"max_blocks"`
}

// ExtractionConfig tunes value extraction.
type ExtractionConfig struct {
	MaxTextLength int `mapstructure:"max_text_length" yaml:"max_text_length"`
}

// OrchestratorConfig bounds concurrent per-URL extraction pipelines.
type OrchestratorConfig struct {
	MaxTabs int `mapstructure:"max_tabs" yaml:"max_tabs"`
	// RateLimit is navigations per second across all tabs.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lodestar")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.post_load_wait", "250ms")
	v.SetDefault("browser.block_resource_types", []string{"image", "media", "font"})

	// -- Healing --
	v.SetDefault("healing.enabled", true)
	v.SetDefault("healing.query_timeout", "1500ms")
	v.SetDefault("healing.cache_file", "./cache/selectors.json")
	v.SetDefault("healing.cache_ttl_hours", 168)
	v.SetDefault("healing.max_candidates", 1800)
	v.SetDefault("healing.similarity_threshold", 3.5)
	v.SetDefault("healing.strategies", []string{"cache", "direct", "text", "semantic"})
	v.SetDefault("healing.store.backend", "file")

	// -- Relevance --
	v.SetDefault("relevance.exclude_selectors", []string{
		"nav", "footer", "aside", ".advert", ".cookie", ".newsletter", "script", "style",
	})
	v.SetDefault("relevance.min_score", 0.6)
	v.SetDefault("relevance.max_items", 25)
	v.SetDefault("relevance.max_blocks", 800)

	// -- Extraction --
	v.SetDefault("extraction.max_text_length", 12000)

	// -- Orchestrator --
	v.SetDefault("orchestrator.max_tabs", 2)
	v.SetDefault("orchestrator.rate_limit", 1.0)
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if expanded, err := homedir.Expand(cfg.Healing.CacheFile); err == nil {
		cfg.Healing.CacheFile = filepath.Clean(expanded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.Healing.Validate(); err != nil {
		return fmt.Errorf("healing configuration invalid: %w", err)
	}
	if c.Relevance.MaxItems <= 0 {
		return fmt.Errorf("relevance.max_items must be a positive integer")
	}
	if c.Relevance.MaxBlocks <= 0 {
		return fmt.Errorf("relevance.max_blocks must be a positive integer")
	}
	if c.Extraction.MaxTextLength <= 0 {
		return fmt.Errorf("extraction.max_text_length must be a positive integer")
	}
	if c.Orchestrator.MaxTabs <= 0 {
		return fmt.Errorf("orchestrator.max_tabs must be a positive integer")
	}
	if c.Orchestrator.RateLimit <= 0 {
		return fmt.Errorf("orchestrator.rate_limit must be positive")
	}
	return nil
}

// Validate checks the healing configuration.
func (h *HealingConfig) Validate() error {
	if h.CacheTTLHours < 0 {
		return fmt.Errorf("cache_ttl_hours must not be negative")
	}
	if h.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be a positive integer")
	}
	if h.SimilarityThreshold < 0 {
		return fmt.Errorf("similarity_threshold must not be negative")
	}
	for _, s := range h.Strategies {
		switch strings.ToLower(s) {
		case "cache", "direct", "text", "semantic":
		default:
			return fmt.Errorf("unknown strategy %q", s)
		}
	}
	switch h.Store.Backend {
	case "", "file":
	case "postgres":
		if h.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", h.Store.Backend)
	}
	return nil
}
