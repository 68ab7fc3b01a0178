package credentials

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	errs "followsync/pkg/errors"
)

func fakeEnv(values map[string]string) *EnvironmentStore {
	return &EnvironmentStore{
		getenv:   func(k string) string { return values[k] },
		readFile: os.ReadFile,
	}
}

func TestManagerMergesFieldByField(t *testing.T) {
	env := fakeEnv(map[string]string{EnvRocketAPIToken: "env-token"})
	memory := NewMemoryStore(map[string]string{
		RocketAPIToken: "stored-token",
		AirtableAPIKey: "stored-airtable",
	})

	secrets, err := NewManagerWithStores(env, memory).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-token", secrets.RocketAPIToken)
	assert.Equal(t, "stored-airtable", secrets.AirtableAPIKey)
	assert.Empty(t, secrets.GoogleCredentialsJSON)
}

func TestManagerLoadPropagatesStoreFailure(t *testing.T) {
	broken := NewMemoryStore(nil)
	broken.GetError = errors.New("keychain locked")

	_, err := NewManagerWithStores(broken).Load()
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	secrets := Secrets{RocketAPIToken: "tok"}

	assert.NoError(t, secrets.Require(RocketAPIToken))

	err := secrets.Require(RocketAPIToken, AirtableAPIKey, GoogleCredentialsJSON)
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
	assert.Contains(t, err.Error(), AirtableAPIKey)
	assert.Contains(t, err.Error(), GoogleCredentialsJSON)
}

func TestManagerSetSkipsReadOnlyStores(t *testing.T) {
	memory := NewMemoryStore(nil)
	manager := NewManagerWithStores(fakeEnv(nil), memory)

	where, err := manager.Set(RocketAPIToken, "secret-token-value")
	require.NoError(t, err)
	assert.Equal(t, "memory", where)
	assert.Equal(t, 1, memory.Count())

	_, err = manager.Set("unknown", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = manager.Set(AirtableAPIKey, "  ")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerDelete(t *testing.T) {
	memory := NewMemoryStore(map[string]string{RocketAPIToken: "tok"})
	manager := NewManagerWithStores(fakeEnv(nil), memory)

	require.NoError(t, manager.Delete(RocketAPIToken))
	assert.Equal(t, 0, memory.Count())
	assert.ErrorIs(t, manager.Delete(RocketAPIToken), ErrCredentialsNotFound)
}

func TestManagerStatus(t *testing.T) {
	env := fakeEnv(map[string]string{EnvAirtableAPIKey: "patABCDEFGHIJKL"})
	memory := NewMemoryStore(map[string]string{RocketAPIToken: "short"})

	statuses, err := NewManagerWithStores(env, memory).Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, Status{Name: RocketAPIToken, Source: "memory", Masked: "********"}, statuses[0])
	assert.Equal(t, Status{Name: AirtableAPIKey, Source: "environment", Masked: "patA...IJKL"}, statuses[1])
	assert.Equal(t, Status{Name: GoogleCredentialsJSON}, statuses[2])
}

func TestEnvironmentStoreCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600))

	store := fakeEnv(map[string]string{EnvGoogleCredentialsFile: path})
	value, err := store.Get(GoogleCredentialsJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, value)

	missing := fakeEnv(map[string]string{EnvGoogleCredentialsFile: filepath.Join(t.TempDir(), "nope.json")})
	_, err = missing.Get(GoogleCredentialsJSON)
	assert.Error(t, err)

	assert.ErrorIs(t, store.Set(RocketAPIToken, "x"), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Get(RocketAPIToken)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Set(RocketAPIToken, "from-keyring"))
	value, err := store.Get(RocketAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", value)

	require.NoError(t, store.Delete(RocketAPIToken))
	assert.ErrorIs(t, store.Delete(RocketAPIToken), ErrCredentialsNotFound)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********", Mask("abc"))
	assert.Equal(t, "abcd...mnop", Mask("abcdefghijklmnop"))
}

func TestWriteSetupGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteSetupGuide(&buf)
	assert.Contains(t, buf.String(), EnvRocketAPIToken)
	assert.Contains(t, buf.String(), EnvGoogleCredentialsFile)
}
