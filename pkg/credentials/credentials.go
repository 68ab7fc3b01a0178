package credentials

import (
	"errors"
	"fmt"
	"strings"

	errs "followsync/pkg/errors"
)

// Secret names
const (
	RocketAPIToken        = "rocketapi_token"
	AirtableAPIKey        = "airtable_api_key"
	GoogleCredentialsJSON = "google_credentials_json"
)

// Names lists every secret the tool knows about
var Names = []string{RocketAPIToken, AirtableAPIKey, GoogleCredentialsJSON}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Secrets holds the credentials a run needs
type Secrets struct {
	RocketAPIToken        string
	AirtableAPIKey        string
	GoogleCredentialsJSON string
}

// Get returns a secret by name
func (s Secrets) Get(name string) string {
	switch name {
	case RocketAPIToken:
		return s.RocketAPIToken
	case AirtableAPIKey:
		return s.AirtableAPIKey
	case GoogleCredentialsJSON:
		return s.GoogleCredentialsJSON
	default:
		return ""
	}
}

func (s *Secrets) set(name, value string) {
	switch name {
	case RocketAPIToken:
		s.RocketAPIToken = value
	case AirtableAPIKey:
		s.AirtableAPIKey = value
	case GoogleCredentialsJSON:
		s.GoogleCredentialsJSON = value
	}
}

// Require returns a config error naming every missing secret
func (s Secrets) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(s.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errs.Newf(errs.KindConfig, errs.StageCredentials,
		"missing credentials: %s (set them with 'followsync auth set' or the environment)", strings.Join(missing, ", "))
}

// IsKnown reports whether name is a secret the tool uses
func IsKnown(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Store reads and writes individual secrets
type Store interface {
	// Name identifies the store in status output
	Name() string
	// Get returns ErrCredentialsNotFound when the secret is not set
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// Manager merges secrets from several stores; earlier stores win
type Manager struct {
	stores []Store
}

// NewManager creates a manager reading the environment first, then the system keyring
func NewManager() *Manager {
	stores := []Store{NewEnvironmentStore()}
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	return &Manager{stores: stores}
}

// NewManagerWithStores creates a manager over the given stores in priority order
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Load merges every secret field by field
func (m *Manager) Load() (Secrets, error) {
	var secrets Secrets
	for _, name := range Names {
		value, _, err := m.lookup(name)
		if err != nil {
			return secrets, err
		}
		secrets.set(name, value)
	}
	return secrets, nil
}

// lookup returns the first non-empty value and the store it came from
func (m *Manager) lookup(name string) (string, string, error) {
	for _, store := range m.stores {
		value, err := store.Get(name)
		switch {
		case err == nil && value != "":
			return value, store.Name(), nil
		case err == nil, errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
			continue
		default:
			return "", "", fmt.Errorf("failed to read %s from %s: %w", name, store.Name(), err)
		}
	}
	return "", "", nil
}

// Set saves a secret in the first store that accepts writes
func (m *Manager) Set(name, value string) (string, error) {
	if !IsKnown(name) {
		return "", fmt.Errorf("%w: unknown secret %q", ErrInvalidCredentials, name)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: empty value for %s", ErrInvalidCredentials, name)
	}

	var lastErr error
	for _, store := range m.stores {
		err := store.Set(name, value)
		if err == nil {
			return store.Name(), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, lastErr)
	}
	return "", ErrStoreUnavailable
}

// Delete removes a secret from every writable store
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrCredentialsNotFound):
		default:
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to delete %s: %w", name, lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// Status describes where a secret was found, with its value masked
type Status struct {
	Name   string
	Source string
	Masked string
}

// Status reports every known secret
func (m *Manager) Status() ([]Status, error) {
	statuses := make([]Status, 0, len(Names))
	for _, name := range Names {
		value, source, err := m.lookup(name)
		if err != nil {
			return nil, err
		}
		st := Status{Name: name, Source: source}
		if value != "" {
			st.Masked = Mask(value)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Mask masks all but the first 4 and last 4 characters of a string
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
