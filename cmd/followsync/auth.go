package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"followsync/pkg/credentials"
	"followsync/pkg/ui"
)

var authFromFile string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage the secrets followsync needs:

  rocketapi_token          RocketAPI token (always required)
  airtable_api_key         Airtable token (when accounts come from Airtable)
  google_credentials_json  Google service account key (for the sheets store)

Secrets are stored in the system keychain. Environment variables
(ROCKETAPI_TOKEN, AIRTABLE_API_KEY, GOOGLE_CREDENTIALS_JSON or
GOOGLE_CREDENTIALS_FILE) take precedence over stored values.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a secret in the system keychain",
	Example: `  # Prompt for the RocketAPI token without echoing it
  followsync auth set rocketapi_token

  # Store a service account key from a file
  followsync auth set google_credentials_json --from-file key.json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: credentials.Names,
	RunE:      runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which secrets are configured and where they come from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authClearCmd = &cobra.Command{
	Use:   "clear [name...]",
	Short: "Remove stored secrets (all of them when no name is given)",
	RunE:  runAuthClear,
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain where each secret comes from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		credentials.WriteSetupGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authGuideCmd)

	authSetCmd.Flags().StringVar(&authFromFile, "from-file", "", "read the secret from a file")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !credentials.IsKnown(name) {
		return fmt.Errorf("unknown secret %q (expected one of %s)", name, strings.Join(credentials.Names, ", "))
	}

	var value string
	if authFromFile != "" {
		data, err := os.ReadFile(authFromFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", authFromFile, err)
		}
		value = strings.TrimSpace(string(data))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "🔑 %s: ", name)
		input, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		value = input
	}

	where, err := credentials.NewManager().Set(name, value)
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Stored %s in %s", name, where))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	statuses, err := credentials.NewManager().Status()
	if err != nil {
		return err
	}

	ui.PrintHighlight("Credentials")
	out := cmd.OutOrStdout()
	for _, st := range statuses {
		if st.Source == "" {
			fmt.Fprintf(out, "  %-24s %s\n", st.Name, "not set")
			continue
		}
		fmt.Fprintf(out, "  %-24s %s (from %s)\n", st.Name, st.Masked, st.Source)
	}
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = credentials.Names
	}

	manager := credentials.NewManager()
	for _, name := range names {
		err := manager.Delete(name)
		switch {
		case err == nil:
			ui.PrintSuccess("Removed " + name)
		case errors.Is(err, credentials.ErrCredentialsNotFound):
			ui.PrintWarning("Not stored", name)
		default:
			return err
		}
	}
	return nil
}

// readSecret reads a secret without echoing when stdin is a terminal
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
