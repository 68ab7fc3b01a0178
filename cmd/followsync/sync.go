package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"followsync/pkg/config"
	"followsync/pkg/credentials"
	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/ui"
)

var (
	syncAccounts    []string
	syncSheet       string
	syncStore       string
	syncLocalDB     string
	syncConcurrency int
	syncTabPolicy   string
	syncDryRun      bool
	syncEnvelope    string
	syncMaxPages    int
	syncRPM         int
	syncMaxAttempts int
	syncNotify      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Append new followers of every account to its sheet tab",
	Long: `Run one sync pass.

For each account the follower list is paged through RocketAPI, compared with
the first column of the account's tab in the destination spreadsheet, and
only the missing usernames are appended. A missing tab is created with a
header row unless --tab-policy strict is set.

Without --account the accounts are read from the configured Airtable table.
Failures of single accounts are reported and do not stop the run. The exit
code is non-zero only when configuration, credentials or the account list
cannot be loaded.

Interrupting the run (Ctrl+C) lets the account in progress stop cleanly and
skips the rest.`,
	Example: `  # Sync every account listed in Airtable
  followsync sync

  # Sync two accounts into one spreadsheet
  followsync sync --account alice --account bob \
    --sheet https://docs.google.com/spreadsheets/d/1AbC.../edit

  # See what would be appended without writing
  followsync sync --dry-run

  # Sync into a local database instead of Google Sheets
  followsync sync --store local --local-db ./followers.db`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	f := syncCmd.Flags()
	f.StringSliceVarP(&syncAccounts, "account", "a", nil, "account to sync (repeatable); skips the Airtable registry")
	f.StringVar(&syncSheet, "sheet", "", "destination spreadsheet URL or id for --account")
	f.StringVar(&syncStore, "store", "", "destination store (sheets, local)")
	f.StringVar(&syncLocalDB, "local-db", "", "database file for --store local")
	f.IntVar(&syncConcurrency, "concurrency", 1, "accounts synced in parallel")
	f.StringVar(&syncTabPolicy, "tab-policy", "", "missing tab handling (create, strict)")
	f.BoolVar(&syncDryRun, "dry-run", false, "compute deltas without writing")
	f.StringVar(&syncEnvelope, "envelope", "", "upstream response shape (auto, flat, graph, wrapped)")
	f.IntVar(&syncMaxPages, "max-pages", 0, "stop each account after this many follower pages (0 = no limit)")
	f.IntVar(&syncRPM, "rate-limit", 60, "upstream requests per minute")
	f.IntVar(&syncMaxAttempts, "max-attempts", 3, "attempts per upstream request")
	f.BoolVar(&syncNotify, "notify", false, "send a desktop notification when the run ends")
}

// syncFlags returns the flags the user set, keyed the way config expects
func syncFlags(flags *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	set := func(name, key string, value interface{}) {
		if flags.Changed(name) {
			out[key] = value
		}
	}

	set("account", "accounts", syncAccounts)
	set("sheet", "sheet", syncSheet)
	set("store", "store", syncStore)
	set("local-db", "local-db", syncLocalDB)
	set("concurrency", "concurrency", syncConcurrency)
	set("tab-policy", "tab-policy", syncTabPolicy)
	set("dry-run", "dry-run", syncDryRun)
	set("envelope", "envelope", syncEnvelope)
	set("max-pages", "max-pages", syncMaxPages)
	set("rate-limit", "requests-per-minute", syncRPM)
	set("max-attempts", "max-attempts", syncMaxAttempts)
	if logLevel != "" {
		out["log-level"] = logLevel
	}
	return out
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, syncFlags(cmd.Flags()))
	if err != nil {
		return errs.Wrap(err, errs.KindConfig, "", "invalid configuration")
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return errs.Wrap(err, errs.KindConfig, "", "failed to initialize logging")
	}
	log := logger.GetLogger().WithField("version", version)

	secrets, err := credentials.NewManager().Load()
	if err != nil {
		return errs.Wrap(err, errs.KindConfig, errs.StageCredentials, "failed to load credentials")
	}
	if err := secrets.Require(requiredSecrets(cfg)...); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := ui.Default()
	term.Banner()
	if len(cfg.Registry.Accounts) > 0 && cfg.Registry.Kind == config.RegistryStatic {
		term.Info("Accounts", strconv.Itoa(len(cfg.Registry.Accounts)))
	} else {
		term.Info("Registry", fmt.Sprintf("airtable %s/%s", cfg.Registry.AirtableBase, cfg.Registry.AirtableTable))
	}
	term.Info("Store", cfg.Store.Kind)
	if cfg.Sync.DryRun {
		term.Warning("Dry run: nothing will be written")
	}

	s, closeStore, err := buildSyncer(ctx, cfg, secrets, log, term.TargetLine)
	if err != nil {
		return errs.Wrap(err, errs.KindConfig, "", "failed to set up sync")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	summary, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if syncNotify {
		if err := ui.NewNotifier().NotifySummary(summary); err != nil {
			log.WithError(err).Debug("Desktop notification failed")
		}
	}

	return term.Summary(summary)
}
