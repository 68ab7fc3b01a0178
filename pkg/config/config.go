package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the follower sync
type Config struct {
	// Upstream follower API
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`

	// Account registry (where targets come from)
	Registry RegistryConfig `yaml:"registry" json:"registry"`

	// Destination store
	Store StoreConfig `yaml:"store" json:"store"`

	// Sync behaviour
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// UpstreamConfig holds RocketAPI-specific configuration
type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Envelope string        `yaml:"envelope" json:"envelope"`
}

// RegistryConfig selects and configures the target source
type RegistryConfig struct {
	Kind          string   `yaml:"kind" json:"kind"`
	AirtableBase  string   `yaml:"airtable_base" json:"airtable_base"`
	AirtableTable string   `yaml:"airtable_table" json:"airtable_table"`
	UsernameField string   `yaml:"username_field" json:"username_field"`
	SheetField    string   `yaml:"sheet_field" json:"sheet_field"`
	Accounts      []string `yaml:"accounts" json:"accounts"`
	Sheet         string   `yaml:"sheet" json:"sheet"`
}

// StoreConfig selects and configures the destination store
type StoreConfig struct {
	Kind                string `yaml:"kind" json:"kind"`
	LocalPath           string `yaml:"local_path" json:"local_path"`
	WriteRequestsPerMin int    `yaml:"write_requests_per_minute" json:"write_requests_per_minute"`
	ValueInputOption    string `yaml:"value_input_option" json:"value_input_option"`
}

// SyncConfig holds per-run sync options
type SyncConfig struct {
	Concurrency int      `yaml:"concurrency" json:"concurrency"`
	TabPolicy   string   `yaml:"tab_policy" json:"tab_policy"`
	Header      []string `yaml:"header" json:"header"`
	DryRun      bool     `yaml:"dry_run" json:"dry_run"`
	MaxPages    int      `yaml:"max_pages" json:"max_pages"`
}

// RateLimitConfig holds upstream rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxInflight       int `yaml:"max_inflight" json:"max_inflight"`
}

// RetryConfig holds retry configuration for upstream calls
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

const (
	RegistryAirtable = "airtable"
	RegistryStatic   = "static"

	StoreSheets = "sheets"
	StoreLocal  = "local"

	TabPolicyCreate = "create"
	TabPolicyStrict = "strict"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:  "https://v1.rocketapi.io",
			Timeout:  30 * time.Second,
			Envelope: "auto",
		},
		Registry: RegistryConfig{
			Kind:          RegistryAirtable,
			AirtableTable: "Accounts",
			UsernameField: "Username",
			SheetField:    "Google Sheets",
		},
		Store: StoreConfig{
			Kind:                StoreSheets,
			LocalPath:           "followsync.db",
			WriteRequestsPerMin: 60,
			ValueInputOption:    "RAW",
		},
		Sync: SyncConfig{
			Concurrency: 1,
			TabPolicy:   TabPolicyCreate,
			Header:      []string{"username"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MaxInflight:       2,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Multiplier:  2.0,
			MaxDelay:    time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("FOLLOWSYNC_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("FOLLOWSYNC_ENVELOPE"); v != "" {
		c.Upstream.Envelope = v
	}
	if v := os.Getenv("FOLLOWSYNC_AIRTABLE_BASE"); v != "" {
		c.Registry.AirtableBase = v
	}
	if v := os.Getenv("FOLLOWSYNC_AIRTABLE_TABLE"); v != "" {
		c.Registry.AirtableTable = v
	}
	if v := os.Getenv("FOLLOWSYNC_ACCOUNTS"); v != "" {
		c.Registry.Accounts = splitList(v)
		c.Registry.Kind = RegistryStatic
	}
	if v := os.Getenv("FOLLOWSYNC_SHEET"); v != "" {
		c.Registry.Sheet = v
	}
	if v := os.Getenv("FOLLOWSYNC_STORE"); v != "" {
		c.Store.Kind = v
	}
	if v := os.Getenv("FOLLOWSYNC_TAB_POLICY"); v != "" {
		c.Sync.TabPolicy = v
	}

	// Numeric settings
	if v := os.Getenv("FOLLOWSYNC_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_CONCURRENCY: %w", err))
		} else {
			c.Sync.Concurrency = n
		}
	}
	if v := os.Getenv("FOLLOWSYNC_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("FOLLOWSYNC_DRY_RUN"); v != "" {
		c.Sync.DryRun = strings.ToLower(v) == "true" || v == "1"
	}

	if v := os.Getenv("FOLLOWSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".followsync.yaml",
		".followsync.yml",
		"followsync.yaml",
		filepath.Join(home, ".config", "followsync", "config.yaml"),
		filepath.Join(home, ".config", "followsync", "config.yml"),
		filepath.Join(home, ".followsync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream base URL is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	switch strings.ToLower(c.Upstream.Envelope) {
	case "auto", "flat", "graph", "wrapped":
	default:
		errs = append(errs, fmt.Errorf("invalid envelope %q (want auto, flat, graph or wrapped)", c.Upstream.Envelope))
	}

	switch c.Registry.Kind {
	case RegistryAirtable:
		if c.Registry.AirtableBase == "" {
			errs = append(errs, errors.New("airtable base id is required"))
		}
		if c.Registry.AirtableTable == "" {
			errs = append(errs, errors.New("airtable table name is required"))
		}
	case RegistryStatic:
		if len(c.Registry.Accounts) == 0 {
			errs = append(errs, errors.New("static registry needs at least one account"))
		}
		if c.Registry.Sheet == "" {
			errs = append(errs, errors.New("static registry needs a destination sheet"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid registry kind %q", c.Registry.Kind))
	}

	switch c.Store.Kind {
	case StoreSheets:
		if c.Store.WriteRequestsPerMin <= 0 {
			errs = append(errs, errors.New("store write quota must be positive"))
		}
	case StoreLocal:
		if c.Store.LocalPath == "" {
			errs = append(errs, errors.New("local store path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store kind %q", c.Store.Kind))
	}

	if c.Sync.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if c.Sync.TabPolicy != TabPolicyCreate && c.Sync.TabPolicy != TabPolicyStrict {
		errs = append(errs, fmt.Errorf("invalid tab policy %q (want create or strict)", c.Sync.TabPolicy))
	}
	if c.Sync.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxInflight <= 0 {
		errs = append(errs, errors.New("max inflight requests must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map override the current values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if accounts, ok := flags["accounts"].([]string); ok && len(accounts) > 0 {
		c.Registry.Accounts = accounts
		c.Registry.Kind = RegistryStatic
	}
	if sheet, ok := flags["sheet"].(string); ok && sheet != "" {
		c.Registry.Sheet = sheet
	}
	if store, ok := flags["store"].(string); ok && store != "" {
		c.Store.Kind = store
	}
	if path, ok := flags["local-db"].(string); ok && path != "" {
		c.Store.LocalPath = path
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Sync.Concurrency = concurrency
	}
	if policy, ok := flags["tab-policy"].(string); ok && policy != "" {
		c.Sync.TabPolicy = policy
	}
	if dryRun, ok := flags["dry-run"].(bool); ok {
		c.Sync.DryRun = dryRun
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.Sync.MaxPages = maxPages
	}
	if envelope, ok := flags["envelope"].(string); ok && envelope != "" {
		c.Upstream.Envelope = envelope
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".followsync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
