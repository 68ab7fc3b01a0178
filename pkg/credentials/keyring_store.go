package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "followsync"

// KeyringStore keeps secrets in the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store, failing when no keyring is reachable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Name() string { return "keyring" }

// Get reads a secret from the system keychain
func (k *KeyringStore) Get(name string) (string, error) {
	value, err := keyring.Get(keyringService, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrCredentialsNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return value, nil
}

// Set saves a secret to the system keychain
func (k *KeyringStore) Set(name, value string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	if err := keyring.Set(keyringService, name, value); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Delete removes a secret from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(keyringService, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
