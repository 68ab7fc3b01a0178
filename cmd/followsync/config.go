package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"followsync/pkg/config"
	"followsync/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage followsync configuration files.

Configuration is merged from (highest priority first):
  - Command line flags
  - Environment variables (FOLLOWSYNC_*)
  - .env files
  - Configuration file
  - Default values

Secrets never live in the configuration file; see 'followsync auth'.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'followsync.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it.

This command checks:
  - YAML syntax
  - Registry and store selection
  - Value ranges (concurrency, rate limits, retries)`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# followsync configuration
#
# Every value can also be set through FOLLOWSYNC_* environment variables,
# e.g. FOLLOWSYNC_AIRTABLE_BASE or FOLLOWSYNC_STORE.
# Secrets (RocketAPI token, Airtable key, Google service account) are
# managed with 'followsync auth'.

upstream:
  base_url: "https://v1.rocketapi.io"
  timeout: 30s
  # Response shape: auto, flat, graph or wrapped
  envelope: auto

registry:
  # airtable reads accounts from a table, static uses the accounts below
  kind: airtable
  airtable_base: "appXXXXXXXXXXXXXX"
  airtable_table: "Accounts"
  username_field: "Username"
  sheet_field: "Google Sheets"
  # accounts: ["alice", "bob"]
  # sheet: "https://docs.google.com/spreadsheets/d/<id>/edit"

store:
  # sheets writes to Google Sheets, local to a database file
  kind: sheets
  local_path: "followsync.db"
  write_requests_per_minute: 60
  value_input_option: RAW

sync:
  # Accounts synced in parallel
  concurrency: 1
  # create adds a missing tab, strict reports it as a failure
  tab_policy: create
  header: ["username"]
  dry_run: false
  # 0 means no limit
  max_pages: 0

rate_limit:
  requests_per_minute: 60
  max_inflight: 2

retry:
  max_attempts: 3
  base_delay: 2s
  multiplier: 2
  max_delay: 1m

logging:
  # debug, info, warn, error, disabled
  level: info
  file: ""
  json: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "followsync.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to regenerate)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set your Airtable base id or switch the registry to static")
	fmt.Fprintln(out, "2. Store secrets with 'followsync auth set'")
	fmt.Fprintln(out, "3. Check everything with 'followsync config validate'")
	fmt.Fprintln(out, "4. Run 'followsync sync --dry-run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(out, "\nConfiguration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		ui.PrintInfo("Validating configuration", path)
	} else {
		ui.PrintWarning("No configuration file found, validating defaults and environment")
	}

	if _, err := config.Load(path, nil); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	return nil
}
