package credentials

import (
	"fmt"
	"os"
)

// Environment variable names
const (
	EnvRocketAPIToken        = "ROCKETAPI_TOKEN"
	EnvAirtableAPIKey        = "AIRTABLE_API_KEY"
	EnvGoogleCredentialsJSON = "GOOGLE_CREDENTIALS_JSON"
	EnvGoogleCredentialsFile = "GOOGLE_CREDENTIALS_FILE"
)

var envNames = map[string]string{
	RocketAPIToken:        EnvRocketAPIToken,
	AirtableAPIKey:        EnvAirtableAPIKey,
	GoogleCredentialsJSON: EnvGoogleCredentialsJSON,
}

// EnvironmentStore reads secrets from environment variables. It is read-only.
type EnvironmentStore struct {
	getenv   func(string) string
	readFile func(string) ([]byte, error)
}

// NewEnvironmentStore creates a store over the process environment
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{getenv: os.Getenv, readFile: os.ReadFile}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Get reads a secret. Google credentials may also be given as a file path.
func (e *EnvironmentStore) Get(name string) (string, error) {
	env, ok := envNames[name]
	if !ok {
		return "", ErrCredentialsNotFound
	}
	if value := e.getenv(env); value != "" {
		return value, nil
	}

	if name == GoogleCredentialsJSON {
		if path := e.getenv(EnvGoogleCredentialsFile); path != "" {
			data, err := e.readFile(path)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", EnvGoogleCredentialsFile, err)
			}
			return string(data), nil
		}
	}
	return "", ErrCredentialsNotFound
}

// Set is not supported for environment variables
func (e *EnvironmentStore) Set(name, value string) error {
	return ErrStoreUnavailable
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}
