package main

import (
	"context"
	"fmt"
	"time"

	"followsync/pkg/config"
	"followsync/pkg/credentials"
	"followsync/pkg/logger"
	"followsync/pkg/ratelimit"
	"followsync/pkg/reconcile"
	"followsync/pkg/registry"
	"followsync/pkg/retry"
	"followsync/pkg/rocketapi"
	"followsync/pkg/sheetstore"
	"followsync/pkg/syncer"
)

// requiredSecrets lists the secrets cfg needs
func requiredSecrets(cfg *config.Config) []string {
	names := []string{credentials.RocketAPIToken}
	if cfg.Registry.Kind == config.RegistryAirtable {
		names = append(names, credentials.AirtableAPIKey)
	}
	if cfg.Store.Kind == config.StoreSheets {
		names = append(names, credentials.GoogleCredentialsJSON)
	}
	return names
}

func newUpstream(cfg *config.Config, secrets credentials.Secrets, log logger.Logger) (*rocketapi.Client, error) {
	envelope, err := rocketapi.ParseEnvelopeKind(cfg.Upstream.Envelope)
	if err != nil {
		return nil, err
	}

	inflight := ratelimit.NewInflight(cfg.RateLimit.MaxInflight)
	client := rocketapi.NewClient(rocketapi.Options{
		BaseURL:  cfg.Upstream.BaseURL,
		Token:    secrets.RocketAPIToken,
		Timeout:  cfg.Upstream.Timeout,
		Envelope: envelope,
		Limiter:  ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
		Inflight: inflight,
		Retry:    retry.FromSettings(cfg.Retry, log),
		Logger:   log,
	})

	logger.LogComponentStart(log, "rocketapi", map[string]interface{}{
		"envelope":     string(client.Envelope()),
		"max_inflight": inflight.Max(),
		"rpm":          cfg.RateLimit.RequestsPerMinute,
	})
	return client, nil
}

// newStore opens the destination store. The returned close func is never nil.
func newStore(ctx context.Context, cfg *config.Config, secrets credentials.Secrets, log logger.Logger) (sheetstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Kind {
	case config.StoreLocal:
		store, err := sheetstore.OpenBoltStore(cfg.Store.LocalPath)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.StoreSheets:
		store, err := sheetstore.NewSheetsStore(ctx, sheetstore.SheetsOptions{
			CredentialsJSON:  []byte(secrets.GoogleCredentialsJSON),
			ValueInputOption: cfg.Store.ValueInputOption,
			WriteLimiter:     ratelimit.NewSlidingWindow(cfg.Store.WriteRequestsPerMin, time.Minute),
			Logger:           log,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

func newSource(cfg *config.Config, secrets credentials.Secrets, log logger.Logger) (registry.Source, error) {
	switch cfg.Registry.Kind {
	case config.RegistryStatic:
		return registry.NewStaticSource(cfg.Registry.Accounts, cfg.Registry.Sheet), nil
	case config.RegistryAirtable:
		return registry.NewAirtableSource(registry.AirtableOptions{
			APIKey:        secrets.AirtableAPIKey,
			BaseID:        cfg.Registry.AirtableBase,
			Table:         cfg.Registry.AirtableTable,
			UsernameField: cfg.Registry.UsernameField,
			SheetField:    cfg.Registry.SheetField,
			Logger:        log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown registry kind %q", cfg.Registry.Kind)
	}
}

// buildSyncer wires every component of a run from cfg
func buildSyncer(ctx context.Context, cfg *config.Config, secrets credentials.Secrets, log logger.Logger, onResult func(syncer.TargetResult)) (*syncer.Syncer, func() error, error) {
	noop := func() error { return nil }

	policy, err := reconcile.ParseTabPolicy(cfg.Sync.TabPolicy)
	if err != nil {
		return nil, noop, err
	}

	upstream, err := newUpstream(cfg, secrets, log)
	if err != nil {
		return nil, noop, err
	}

	source, err := newSource(cfg, secrets, log)
	if err != nil {
		return nil, noop, err
	}

	store, closeStore, err := newStore(ctx, cfg, secrets, log)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open %s store: %w", cfg.Store.Kind, err)
	}

	s, err := syncer.New(syncer.Options{
		Upstream:    upstream,
		Store:       store,
		Source:      source,
		Concurrency: cfg.Sync.Concurrency,
		TabPolicy:   policy,
		Header:      cfg.Sync.Header,
		DryRun:      cfg.Sync.DryRun,
		MaxPages:    cfg.Sync.MaxPages,
		Logger:      log,
		OnResult:    onResult,
	})
	if err != nil {
		_ = closeStore()
		return nil, noop, err
	}
	return s, closeStore, nil
}
