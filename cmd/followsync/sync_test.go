package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followsync/pkg/config"
	"followsync/pkg/credentials"
	"followsync/pkg/logger"
)

func TestRequiredSecrets(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, []string{
		credentials.RocketAPIToken,
		credentials.AirtableAPIKey,
		credentials.GoogleCredentialsJSON,
	}, requiredSecrets(cfg))

	cfg.Registry.Kind = config.RegistryStatic
	cfg.Store.Kind = config.StoreLocal
	assert.Equal(t, []string{credentials.RocketAPIToken}, requiredSecrets(cfg))
}

func TestSyncFlagsOnlyIncludesChangedFlags(t *testing.T) {
	require.NoError(t, syncCmd.Flags().Parse([]string{"--account", "alice", "--account", "bob", "--dry-run", "--concurrency", "4"}))
	t.Cleanup(func() {
		syncCmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
		syncAccounts, syncDryRun, syncConcurrency = nil, false, 1
	})

	flags := syncFlags(syncCmd.Flags())
	assert.Equal(t, []string{"alice", "bob"}, flags["accounts"])
	assert.Equal(t, true, flags["dry-run"])
	assert.Equal(t, 4, flags["concurrency"])
	assert.NotContains(t, flags, "store")
	assert.NotContains(t, flags, "max-pages")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, config.RegistryStatic, cfg.Registry.Kind)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.True(t, cfg.Sync.DryRun)
}

func TestBuildSyncerLocalStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Registry.Kind = config.RegistryStatic
	cfg.Registry.Accounts = []string{"alice"}
	cfg.Registry.Sheet = "sheet123"
	cfg.Store.Kind = config.StoreLocal
	cfg.Store.LocalPath = filepath.Join(t.TempDir(), "sync.db")

	s, closeStore, err := buildSyncer(context.Background(), cfg, credentials.Secrets{RocketAPIToken: "tok"}, logger.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, closeStore())
}

func TestBuildSyncerRejectsBadSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Registry.Kind = config.RegistryStatic
	cfg.Store.Kind = config.StoreLocal
	cfg.Store.LocalPath = filepath.Join(t.TempDir(), "sync.db")

	cfg.Upstream.Envelope = "xml"
	_, _, err := buildSyncer(context.Background(), cfg, credentials.Secrets{}, logger.NewNopLogger(), nil)
	assert.Error(t, err)

	cfg.Upstream.Envelope = "auto"
	cfg.Sync.TabPolicy = "sometimes"
	_, _, err = buildSyncer(context.Background(), cfg, credentials.Secrets{}, logger.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestReadSecretFromPipe(t *testing.T) {
	secret, err := readSecret(strings.NewReader("  s3cret \n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	secret, err = readSecret(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", secret)
}

func TestNewUpstreamLogsClientSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upstream.Envelope = "graph"
	cfg.RateLimit.MaxInflight = 4

	log := logger.NewTestLogger()
	client, err := newUpstream(cfg, credentials.Secrets{RocketAPIToken: "tok"}, log)
	require.NoError(t, err)
	require.NotNil(t, client)

	var fields map[string]interface{}
	for _, msg := range log.GetMessagesByLevel("INFO") {
		if msg.Message == "Component started" && msg.Fields["component"] == "rocketapi" {
			fields = msg.Fields
		}
	}
	require.NotNil(t, fields)
	assert.Equal(t, "graph", fields["envelope"])
	assert.Equal(t, 4, fields["max_inflight"])
}

func TestNewUpstreamRejectsUnknownEnvelope(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upstream.Envelope = "xml"
	_, err := newUpstream(cfg, credentials.Secrets{RocketAPIToken: "tok"}, logger.NewNopLogger())
	assert.Error(t, err)
}
