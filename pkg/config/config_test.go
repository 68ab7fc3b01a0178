package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Registry.AirtableBase = "appTest"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Retry.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts to be 3, got %d", config.Retry.MaxAttempts)
	}

	if config.Retry.BaseDelay != 2*time.Second || config.Retry.Multiplier != 2.0 {
		t.Errorf("Expected 2s base delay with multiplier 2, got %v x%v", config.Retry.BaseDelay, config.Retry.Multiplier)
	}

	if config.Sync.TabPolicy != TabPolicyCreate {
		t.Errorf("Expected default tab policy to be create, got %s", config.Sync.TabPolicy)
	}

	if config.Sync.Concurrency != 1 {
		t.Errorf("Expected sequential processing by default, got concurrency %d", config.Sync.Concurrency)
	}

	if config.Upstream.Envelope != "auto" {
		t.Errorf("Expected envelope auto-detection by default, got %s", config.Upstream.Envelope)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FOLLOWSYNC_ACCOUNTS", "alice, bob,,carol")
	t.Setenv("FOLLOWSYNC_SHEET", "https://docs.google.com/spreadsheets/d/abc123/edit")
	t.Setenv("FOLLOWSYNC_CONCURRENCY", "4")
	t.Setenv("FOLLOWSYNC_TAB_POLICY", "strict")
	t.Setenv("FOLLOWSYNC_DRY_RUN", "true")
	t.Setenv("FOLLOWSYNC_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Registry.Kind != RegistryStatic {
		t.Errorf("Expected accounts env to switch registry to static, got %s", config.Registry.Kind)
	}

	if strings.Join(config.Registry.Accounts, ",") != "alice,bob,carol" {
		t.Errorf("Unexpected accounts: %v", config.Registry.Accounts)
	}

	if config.Sync.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", config.Sync.Concurrency)
	}

	if config.Sync.TabPolicy != TabPolicyStrict {
		t.Errorf("Expected strict tab policy, got %s", config.Sync.TabPolicy)
	}

	if !config.Sync.DryRun {
		t.Error("Expected dry run to be enabled")
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("FOLLOWSYNC_CONCURRENCY", "many")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric concurrency")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{
			name:   "valid airtable config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid static config",
			mutate: func(c *Config) {
				c.Registry.Kind = RegistryStatic
				c.Registry.Accounts = []string{"alice"}
				c.Registry.Sheet = "abc123"
			},
		},
		{
			name:      "missing airtable base",
			mutate:    func(c *Config) { c.Registry.AirtableBase = "" },
			wantError: "airtable base id is required",
		},
		{
			name: "static without sheet",
			mutate: func(c *Config) {
				c.Registry.Kind = RegistryStatic
				c.Registry.Accounts = []string{"alice"}
			},
			wantError: "static registry needs a destination sheet",
		},
		{
			name:      "bad envelope",
			mutate:    func(c *Config) { c.Upstream.Envelope = "xml" },
			wantError: "invalid envelope",
		},
		{
			name:      "bad tab policy",
			mutate:    func(c *Config) { c.Sync.TabPolicy = "maybe" },
			wantError: "invalid tab policy",
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Sync.Concurrency = 0 },
			wantError: "concurrency must be positive",
		},
		{
			name:      "unknown store",
			mutate:    func(c *Config) { c.Store.Kind = "csv" },
			wantError: "invalid store kind",
		},
		{
			name:      "zero attempts",
			mutate:    func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantError: "retry max attempts must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Expected error containing %q, got %v", tt.wantError, err)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.Concurrency = 0
	cfg.RateLimit.RequestsPerMinute = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "concurrency") || !strings.Contains(err.Error(), "requests per minute") {
		t.Errorf("Expected both problems reported, got %v", err)
	}
}

func TestLoadFromFileAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlContent := `
registry:
  kind: static
  accounts: [alice, bob]
  sheet: https://docs.google.com/spreadsheets/d/sheet42/edit
sync:
  tab_policy: strict
  max_pages: 50
retry:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Registry.Kind != RegistryStatic || len(config.Registry.Accounts) != 2 {
		t.Errorf("Unexpected registry: %+v", config.Registry)
	}
	if config.Sync.MaxPages != 50 || config.Sync.TabPolicy != TabPolicyStrict {
		t.Errorf("Unexpected sync config: %+v", config.Sync)
	}
	if config.Retry.MaxAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", config.Retry.MaxAttempts)
	}
	// Untouched sections keep defaults
	if config.Upstream.BaseURL != "https://v1.rocketapi.io" {
		t.Errorf("Expected default base URL, got %s", config.Upstream.BaseURL)
	}

	savedPath := filepath.Join(dir, "nested", "saved.yaml")
	if err := config.Save(savedPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(savedPath); err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if reloaded.Registry.Sheet != config.Registry.Sheet {
		t.Errorf("Expected sheet %s after reload, got %s", config.Registry.Sheet, reloaded.Registry.Sheet)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sync: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if err := DefaultConfig().LoadFromFile(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := validConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"accounts":    []string{"alice"},
		"sheet":       "abc123",
		"store":       StoreLocal,
		"local-db":    "/tmp/x.db",
		"concurrency": 3,
		"tab-policy":  TabPolicyStrict,
		"dry-run":     true,
		"max-pages":   10,
		"envelope":    "graph",
	})

	if config.Registry.Kind != RegistryStatic || config.Registry.Sheet != "abc123" {
		t.Errorf("Unexpected registry after flags: %+v", config.Registry)
	}
	if config.Store.Kind != StoreLocal || config.Store.LocalPath != "/tmp/x.db" {
		t.Errorf("Unexpected store after flags: %+v", config.Store)
	}
	if config.Sync.Concurrency != 3 || !config.Sync.DryRun || config.Sync.MaxPages != 10 {
		t.Errorf("Unexpected sync after flags: %+v", config.Sync)
	}
	if config.Upstream.Envelope != "graph" {
		t.Errorf("Expected graph envelope, got %s", config.Upstream.Envelope)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected merged config to be valid, got %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("registry:\n  airtable_base: appFile\nsync:\n  concurrency: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("HOME", dir)
	t.Setenv("FOLLOWSYNC_CONCURRENCY", "5")

	cfg, err := Load(path, map[string]interface{}{"concurrency": 7})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Registry.AirtableBase != "appFile" {
		t.Errorf("Expected base from file, got %s", cfg.Registry.AirtableBase)
	}
	if cfg.Sync.Concurrency != 7 {
		t.Errorf("Expected flag to win over env and file, got %d", cfg.Sync.Concurrency)
	}
}
