package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	errs "followsync/pkg/errors"
	"followsync/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "followsync",
	Short: "Sync Instagram followers into Google Sheets",
	Long: `followsync pulls the follower list of every registered Instagram account
through RocketAPI and appends the followers a destination spreadsheet does
not have yet, one tab per account.

Accounts come from an Airtable table or from --account flags. Rows are only
ever appended, so running a sync twice in a row writes nothing the second
time.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		if quiet {
			ui.SetQuietMode(true)
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(ui.Default(), err)
		os.Exit(1)
	}
}

// reportError prints err, plus a pointer to config validation when the
// run could not start at all
func reportError(t *ui.Terminal, err error) {
	t.Error("Error", err)
	if errs.IsFatal(err) {
		t.Warning("Check your setup with 'followsync config validate' and 'followsync auth status'")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./followsync.yaml or ~/.config/followsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors and failed targets")

	rootCmd.SetVersionTemplate(`followsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
