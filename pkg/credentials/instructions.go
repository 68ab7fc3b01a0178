package credentials

import (
	"fmt"
	"io"
	"strings"
)

// WriteSetupGuide prints where each secret comes from and how to store it
func WriteSetupGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "CREDENTIAL SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "1. RocketAPI token (required)")
	fmt.Fprintln(w, "   - Copy the API token from your RocketAPI dashboard")
	fmt.Fprintf(w, "   - followsync auth set %s   or   export %s=...\n", RocketAPIToken, EnvRocketAPIToken)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "2. Airtable API key (only when accounts come from Airtable)")
	fmt.Fprintln(w, "   - Create a personal access token with data.records:read on the base")
	fmt.Fprintf(w, "   - followsync auth set %s   or   export %s=...\n", AirtableAPIKey, EnvAirtableAPIKey)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "3. Google service account key (only for the sheets store)")
	fmt.Fprintln(w, "   - Create a service account, download its JSON key")
	fmt.Fprintln(w, "   - Share every destination spreadsheet with the service account email")
	fmt.Fprintf(w, "   - followsync auth set %s --from-file key.json\n", GoogleCredentialsJSON)
	fmt.Fprintf(w, "     or export %s=/path/to/key.json\n", EnvGoogleCredentialsFile)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment variables take precedence over the keyring.")
}
